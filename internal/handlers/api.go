package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"ecommerce-dashboard/internal/errors"
	"ecommerce-dashboard/internal/observability"
	"ecommerce-dashboard/internal/pipeline"
	"ecommerce-dashboard/internal/services"
)

var cacheHeaders = map[string]string{
	"Cache-Control": "public, max-age=300",
}

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// serveView computes the views for the request's filter and writes the part
// selected by pick.
func (h *APIHandlers) serveView(w http.ResponseWriter, r *http.Request, pick func(*pipeline.Views) any) {
	spec, err := signalsFromQuery(r.URL.Query()).spec()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	session, err := h.analytics.NewSession(spec)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views, err := session.Views(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, pick(views), cacheHeaders)
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleViews(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, func(v *pipeline.Views) any { return v })
}

func (h *APIHandlers) HandleDailyOrders(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, func(v *pipeline.Views) any { return v.Daily })
}

func (h *APIHandlers) HandleProductRevenue(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, func(v *pipeline.Views) any { return v.Products })
}

func (h *APIHandlers) HandleRegions(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, func(v *pipeline.Views) any { return v.Regions })
}

func (h *APIHandlers) HandleRFM(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, func(v *pipeline.Views) any { return v.RFM })
}

func (h *APIHandlers) HandleDelivery(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, func(v *pipeline.Views) any { return v.Delivery })
}

func (h *APIHandlers) HandlePayments(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, func(v *pipeline.Views) any { return v.Payments })
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, func(v *pipeline.Views) any { return v.Categories })
}

func (h *APIHandlers) HandleReviews(w http.ResponseWriter, r *http.Request) {
	h.serveView(w, r, func(v *pipeline.Views) any { return v.Reviews })
}

func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := h.analytics.Options()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, opts, cacheHeaders)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().Format(time.RFC3339),
		"version":     "1.0.0",
		"data_loaded": h.analytics.Table() != nil,
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.analytics.Stats()

	errors.WriteSuccess(w, stats)
}
