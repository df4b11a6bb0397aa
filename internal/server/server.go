package server

import (
	"log/slog"
	"net/http"

	"superstore-analytics/internal/handlers"
	"superstore-analytics/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

// TemplateHandlers are the page handlers built in cmd/web. The dashboard route
// is only mounted when one is supplied.
type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, maxUploadBytes int64, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger, maxUploadBytes),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

type route struct {
	pattern string
	handler http.HandlerFunc
}

func (s *Server) routes(templateHandlers *TemplateHandlers) []route {
	api, sse := s.apiHandlers, s.sseHandlers

	routes := []route{
		{"GET /health", api.HandleHealth},
		{"GET /admin/stats", api.HandleStats},

		// Dataset ingestion
		{"POST /api/upload", api.HandleUpload},
		{"POST /api/validate", api.HandleValidate},

		// Summary slices and customer lookups
		{"GET /api/summary", api.HandleSummary},
		{"GET /api/top-products", api.HandleTopProducts},
		{"GET /api/top-customers", api.HandleTopCustomers},
		{"GET /api/monthly-trends", api.HandleMonthlyTrends},
		{"GET /api/sales-by-region", api.HandleSalesByRegion},
		{"GET /api/customers", api.HandleCustomers},
		{"GET /api/customers/{id}", api.HandleCustomerProfile},
		{"GET /api/customers/{id}/recommendations", api.HandleRecommendations},

		// Downloads
		{"GET /api/export/report.xlsx", api.HandleExportReport},
		{"GET /api/export/recommendations.csv", api.HandleExportRecommendations},

		// Datastar fragments
		{"GET /sse/summary", sse.HandleSummary},
		{"GET /sse/recommendations", sse.HandleRecommendations},
	}

	if templateHandlers != nil && templateHandlers.Dashboard != nil {
		routes = append(routes, route{"GET /{$}", templateHandlers.Dashboard})
	}
	return routes
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	routes := s.routes(templateHandlers)
	for _, rt := range routes {
		s.mux.HandleFunc(rt.pattern, rt.handler)
	}
	s.logger.Debug("routes registered", "count", len(routes))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
