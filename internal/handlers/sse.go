package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"ecommerce-dashboard/internal/errors"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/observability"
	"ecommerce-dashboard/internal/pipeline"
	"ecommerce-dashboard/internal/services"
	"ecommerce-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// HandleViews recomputes the views for the submitted filter and patches the
// signals of the selected view kind plus its summary fragment.
func (h *SSEHandlers) HandleViews(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(v *pipeline.Views, kind models.ViewKind) map[string]any {
		return v.For(kind)
	})
}

// HandleRefreshAll patches every view regardless of the selected kind.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(v *pipeline.Views, _ models.ViewKind) map[string]any {
		return v.All()
	})
}

func (h *SSEHandlers) serve(w http.ResponseWriter, r *http.Request, pick func(*pipeline.Views, models.ViewKind) map[string]any) {
	var signals filterSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "invalid signals"),
			observability.GetRequestID(r.Context()))
		return
	}

	sse := datastar.NewSSE(w, r)

	views, kind, err := h.compute(r.Context(), signals)
	if err != nil {
		h.patchError(r.Context(), sse, err)
		return
	}

	payload := pick(views, kind)
	payload["startDate"] = formatDay(views.Filter.StartDate)
	payload["endDate"] = formatDay(views.Filter.EndDate)
	jsonData, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal view signals", "error", err, "view", kind)
		return
	}
	if err := sse.PatchSignals(jsonData); err != nil {
		h.logger.Debug("patch signals", "error", err)
		return
	}

	if err := h.patchComponent(r.Context(), sse, templates.Summary(views, kind)); err != nil {
		h.logger.Error("render summary", "error", err, "view", kind)
		return
	}
	if err := h.patchComponent(r.Context(), sse, templates.ErrorBanner("")); err != nil {
		h.logger.Debug("clear error banner", "error", err)
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) compute(ctx context.Context, signals filterSignals) (*pipeline.Views, models.ViewKind, error) {
	kind, err := signals.viewKind()
	if err != nil {
		return nil, "", err
	}
	spec, err := signals.spec()
	if err != nil {
		return nil, "", err
	}
	session, err := h.analytics.NewSession(spec)
	if err != nil {
		return nil, "", err
	}
	views, err := session.Views(ctx)
	if err != nil {
		return nil, "", err
	}
	return views, kind, nil
}

// patchError shows application errors in the banner. Internal failures are
// logged and reported generically.
func (h *SSEHandlers) patchError(ctx context.Context, sse *datastar.ServerSentEventGenerator, err error) {
	message := "Something went wrong while computing the dashboard."
	if appErr, ok := errors.As(err); ok && appErr.Code != errors.CodeInternal {
		message = appErr.Message
		if appErr.Details != "" {
			message += ": " + appErr.Details
		}
		h.logger.Warn("rejected filter", "error", err, "request_id", observability.GetRequestID(ctx))
	} else {
		h.logger.Error("compute views", "error", err, "request_id", observability.GetRequestID(ctx))
	}

	if err := h.patchComponent(ctx, sse, templates.ErrorBanner(message)); err != nil {
		h.logger.Debug("patch error banner", "error", err)
	}
}

func (h *SSEHandlers) patchComponent(ctx context.Context, sse *datastar.ServerSentEventGenerator, c templ.Component) error {
	var buf strings.Builder
	if err := c.Render(ctx, &buf); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return sse.PatchElements(buf.String())
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
