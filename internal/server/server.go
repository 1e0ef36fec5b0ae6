package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ecommerce-dashboard/internal/errors"
	"ecommerce-dashboard/internal/handlers"
	"ecommerce-dashboard/internal/observability"
	"ecommerce-dashboard/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	router      chi.Router
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

// PageHandlers are the handlers the server mounts but does not own: the
// rendered page and the metrics endpoint.
type PageHandlers struct {
	Dashboard http.HandlerFunc
	Metrics   http.Handler
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, pages *PageHandlers) *Server {
	s := &Server{
		analytics:   analytics,
		router:      chi.NewRouter(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes(pages)
	return s
}

func (s *Server) setupRoutes(pages *PageHandlers) {
	r := s.router

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		errors.WriteError(w, s.logger, errors.NotFound("no route for "+req.URL.Path),
			observability.GetRequestID(req.Context()))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		errors.WriteError(w, s.logger, errors.MethodNotAllowed(req.Method+" is not allowed on "+req.URL.Path),
			observability.GetRequestID(req.Context()))
	})

	// Dashboard routes
	if pages != nil && pages.Dashboard != nil {
		r.Get("/", pages.Dashboard)
	}
	r.Get("/health", s.apiHandlers.HandleHealth)
	r.Get("/admin/stats", s.apiHandlers.HandleStats)
	if pages != nil && pages.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", pages.Metrics)
	}

	// REST API endpoints
	r.Route("/api", func(r chi.Router) {
		r.Get("/views", s.apiHandlers.HandleViews)
		r.Get("/daily-orders", s.apiHandlers.HandleDailyOrders)
		r.Get("/product-revenue", s.apiHandlers.HandleProductRevenue)
		r.Get("/regions", s.apiHandlers.HandleRegions)
		r.Get("/rfm", s.apiHandlers.HandleRFM)
		r.Get("/delivery", s.apiHandlers.HandleDelivery)
		r.Get("/payments", s.apiHandlers.HandlePayments)
		r.Get("/categories", s.apiHandlers.HandleCategories)
		r.Get("/reviews", s.apiHandlers.HandleReviews)
		r.Get("/filters", s.apiHandlers.HandleFilters)
	})

	// Datastar SSE endpoints
	r.Route("/sse", func(r chi.Router) {
		r.Get("/views", s.sseHandlers.HandleViews)
		r.Get("/refresh-all", s.sseHandlers.HandleRefreshAll)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
