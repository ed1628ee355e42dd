// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RecordDependencies
	ClassifierDependencies
	AnalyticsDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	recordsHandler    *RecordsHandler
	classifierHandler *ClassifierHandler
	analyticsHandler  *AnalyticsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		recordsHandler:    NewRecordsHandler(deps),
		classifierHandler: NewClassifierHandler(deps),
		analyticsHandler:  NewAnalyticsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /api/performance", MetricsMiddleware(s.recordsHandler.HandleList, "list"))
	mux.HandleFunc("POST /api/performance", MetricsMiddleware(s.recordsHandler.HandleCreate, "create"))
	mux.HandleFunc("PUT /api/performance/{id}", MetricsMiddleware(s.recordsHandler.HandleUpdate, "update"))
	mux.HandleFunc("DELETE /api/performance/{id}", MetricsMiddleware(s.recordsHandler.HandleDelete, "delete"))

	mux.HandleFunc("POST /api/performance/predict", MetricsMiddleware(s.classifierHandler.HandlePredict, "predict"))
	mux.HandleFunc("POST /api/performance/train", MetricsMiddleware(s.classifierHandler.HandleTrain, "train"))

	mux.HandleFunc("GET /api/performance/top/{count}", MetricsMiddleware(s.analyticsHandler.HandleTop, "top"))
	mux.HandleFunc("GET /api/performance/compare/{id1}/{id2}", MetricsMiddleware(s.analyticsHandler.HandleCompare, "compare"))
	mux.HandleFunc("GET /api/performance/stats/average", MetricsMiddleware(s.analyticsHandler.HandleAverage, "average"))
	mux.HandleFunc("POST /api/performance/filter", MetricsMiddleware(s.analyticsHandler.HandleFilter, "filter"))
	mux.HandleFunc("GET /api/performance/trend/{id}", MetricsMiddleware(s.analyticsHandler.HandleTrend, "trend"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
