package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"ecommerce-dashboard/internal/config"
)

func TestNewLoggerTo_Formats(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "info", Format: "json"})
	logger.Info("hello", "rows", 3)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if record["service"] != serviceName {
		t.Errorf("service = %v, want %q", record["service"], serviceName)
	}

	buf.Reset()
	logger = NewLoggerTo(&buf, config.LoggerConfig{Level: "warn", Format: "text"})
	logger.Info("dropped")
	logger.Warn("kept")
	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "msg=kept") {
		t.Errorf("expected text record, got %q", out)
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	if got := GetRequestID(ctx); got != "abc" {
		t.Errorf("GetRequestID() = %q, want abc", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() on empty context = %q", got)
	}
}

func TestStartSpan_InheritsTrace(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "parent")
	_, child := StartSpan(ctx, "child")

	if len(parent.SpanID) != 16 {
		t.Errorf("span id %q should be 16 hex chars", parent.SpanID)
	}
	if child.TraceID != parent.TraceID {
		t.Error("child span should share the parent's trace id")
	}
	if child.ParentID != parent.SpanID {
		t.Error("child span should point at its parent")
	}

	child.SetError(errors.New("boom"))
	child.Finish()
	if child.Status != SpanStatusError || child.Duration == nil {
		t.Errorf("finished error span not recorded: %+v", child)
	}
}

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics()

	m.ObserveRecompute(time.Millisecond, 10, nil)
	m.ObserveRecompute(time.Millisecond, 0, errors.New("bad range"))
	m.ObserveLoad(time.Second, 42)
	m.ObserveRequest(http.MethodGet, http.StatusOK, time.Millisecond)

	if got := testutil.ToFloat64(m.recomputes.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok recomputes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.recomputes.WithLabelValues("error")); got != 1 {
		t.Errorf("error recomputes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.loadedRows); got != 42 {
		t.Errorf("dataset rows = %v, want 42", got)
	}

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "dashboard_http_requests_total") {
		t.Error("metrics endpoint should expose the request counter")
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRecompute(time.Millisecond, 1, nil)
	m.ObserveLoad(time.Millisecond, 1)
	m.ObserveRequest(http.MethodGet, http.StatusOK, time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("nil metrics handler status = %d, want 404", w.Code)
	}
}
