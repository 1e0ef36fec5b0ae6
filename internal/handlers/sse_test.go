package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"ecommerce-dashboard/internal/services"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// sseRequest builds a Datastar GET request carrying signals in the query.
func sseRequest(t *testing.T, path string, signals map[string]any) *http.Request {
	t.Helper()
	if signals == nil {
		return httptest.NewRequest(http.MethodGet, path, nil)
	}
	b, err := json.Marshal(signals)
	if err != nil {
		t.Fatal(err)
	}
	return httptest.NewRequest(http.MethodGet, path+"?datastar="+url.QueryEscape(string(b)), nil)
}

func TestNewSSEHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	logger := quietLogger()

	handlers := NewSSEHandlers(analytics, logger)

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}

	if handlers.analytics != analytics {
		t.Error("NewSSEHandlers() should set analytics field")
	}

	if handlers.logger != logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestSSEHandlers_HandleViews(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), quietLogger())

	tests := []struct {
		view        string
		wantSignals []string
		wantHTML    string
	}{
		{"", []string{"reviews", "rowCount"}, "Overview"},
		{"overview", []string{"reviews", "rowCount"}, "Avg review"},
		{"sales", []string{"dailyOrders", "salesSummary", "delivery"}, "Total revenue"},
		{"customers", []string{"regions", "rfmSummary", "rfmLeaders", "paymentMix"}, "Avg recency"},
		{"products", []string{"productExtremes", "categorySales"}, "Best seller"},
	}

	for _, tt := range tests {
		t.Run("view="+tt.view, func(t *testing.T) {
			req := sseRequest(t, "/sse/views", map[string]any{"view": tt.view})
			w := httptest.NewRecorder()

			handlers.HandleViews(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
				t.Errorf("expected content-type to contain 'text/event-stream', got %q", ct)
			}

			body := w.Body.String()
			if !strings.Contains(body, "datastar-patch-signals") {
				t.Error("response should patch signals")
			}
			for _, signal := range tt.wantSignals {
				if !strings.Contains(body, `"`+signal+`"`) {
					t.Errorf("response should contain %q signal", signal)
				}
			}
			if !strings.Contains(body, `id="summary"`) {
				t.Error("response should patch the summary fragment")
			}
			if !strings.Contains(body, tt.wantHTML) {
				t.Errorf("summary should contain %q", tt.wantHTML)
			}
			if strings.Contains(body, `role="alert"`) {
				t.Error("successful update should not show an error")
			}
		})
	}
}

func TestSSEHandlers_HandleViews_Filters(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), quietLogger())

	req := sseRequest(t, "/sse/views", map[string]any{
		"startDate":   "2023-01-01",
		"endDate":     "2023-12-31",
		"paymentType": "boleto",
		"categories":  []string{},
		"view":        "products",
		"dailyOrders": []any{"ignored"},
	})
	w := httptest.NewRecorder()
	handlers.HandleViews(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "P002") {
		t.Error("boleto filter should keep P002")
	}
	if strings.Contains(body, "P001") || strings.Contains(body, "P003") {
		t.Error("boleto filter should drop credit card products")
	}
	// the clamped range is echoed back to the inputs
	if !strings.Contains(body, `"startDate":"2023-01-15"`) || !strings.Contains(body, `"endDate":"2023-03-05"`) {
		t.Errorf("expected clamped dates in signals, got %s", body)
	}
}

func TestSSEHandlers_ErrorBanner(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), quietLogger())

	tests := []struct {
		name    string
		signals map[string]any
		want    string
	}{
		{"inverted range", map[string]any{"startDate": "2023-03-01", "endDate": "2023-01-01"}, "invalid date range"},
		{"malformed date", map[string]any{"startDate": "March 1st"}, "invalid start date"},
		{"unknown view", map[string]any{"view": "inventory"}, "unknown view"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handlers.HandleViews(w, sseRequest(t, "/sse/views", tt.signals))

			if w.Code != http.StatusOK {
				t.Errorf("errors are patched into the stream, expected status 200, got %d", w.Code)
			}
			body := w.Body.String()
			if !strings.Contains(body, `id="error-banner"`) || !strings.Contains(body, `role="alert"`) {
				t.Fatalf("expected error banner, got %s", body)
			}
			if !strings.Contains(body, tt.want) {
				t.Errorf("banner should mention %q, got %s", tt.want, body)
			}
			if strings.Contains(body, "datastar-patch-signals") {
				t.Error("no data should be patched on error")
			}
		})
	}
}

func TestSSEHandlers_BadSignals(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/views?datastar="+url.QueryEscape("{not json"), nil)
	w := httptest.NewRecorder()
	handlers.HandleViews(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestSSEHandlers_NotLoaded(t *testing.T) {
	handlers := NewSSEHandlers(services.NewAnalytics(quietLogger(), nil), quietLogger())

	w := httptest.NewRecorder()
	handlers.HandleViews(w, sseRequest(t, "/sse/views", nil))

	if body := w.Body.String(); !strings.Contains(body, "dataset has not been loaded") {
		t.Errorf("expected not-loaded banner, got %s", body)
	}
}

func TestSSEHandlers_HandleRefreshAll(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/refresh-all", nil)
	w := httptest.NewRecorder()

	handlers.HandleRefreshAll(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	body := w.Body.String()

	expectedSignals := []string{
		"dailyOrders",
		"salesSummary",
		"delivery",
		"regions",
		"rfmSummary",
		"rfmLeaders",
		"paymentMix",
		"productExtremes",
		"categorySales",
		"reviews",
		"rowCount",
	}

	for _, signal := range expectedSignals {
		if !strings.Contains(body, signal) {
			t.Errorf("response should contain %q signal", signal)
		}
	}

	if !strings.Contains(body, `id="summary"`) {
		t.Error("response should contain the summary fragment")
	}
}
