package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/wicket/internal/domain/classifier"
	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/internal/domain/types"
)

// AnalyticsDependencies defines ranking, comparison and dataset summaries.
type AnalyticsDependencies interface {
	TopPlayers(ctx context.Context, n int) ([]model.PerformanceRecord, error)
	Compare(ctx context.Context, idA, idB string) (types.Comparison, error)
	AverageStats(ctx context.Context) (map[string]float64, error)
	Filter(ctx context.Context, c model.Criteria) ([]model.PerformanceRecord, error)
	Trend(ctx context.Context, id string) (map[string]float64, error)
}

// AnalyticsHandler handles the read-only analytics requests.
type AnalyticsHandler struct {
	deps AnalyticsDependencies
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps AnalyticsDependencies) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps}
}

// HandleTop handles GET /api/performance/top/{count}.
func (h *AnalyticsHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	const op = "api.top_players"
	n, err := strconv.Atoi(r.PathValue("count"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	top, err := h.deps.TopPlayers(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, top)
}

// HandleCompare handles GET /api/performance/compare/{id1}/{id2}.
// Every verdict, not found included, is a 200. The body is the verdict
// message as text unless the client accepts JSON.
func (h *AnalyticsHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "api.compare"
	c, err := h.deps.Compare(r.Context(), r.PathValue("id1"), r.PathValue("id2"))
	if errors.Is(err, classifier.ErrUntrained) {
		writeError(w, http.StatusServiceUnavailable, "untrained", WrapKind(op, ErrUnavailable, err))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, c)
		return
	}
	writeText(w, http.StatusOK, c.Message)
}

// HandleAverage handles GET /api/performance/stats/average.
func (h *AnalyticsHandler) HandleAverage(w http.ResponseWriter, r *http.Request) {
	const op = "api.average_stats"
	avg, err := h.deps.AverageStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, avg)
}

// HandleFilter handles POST /api/performance/filter. An empty body matches
// every record.
func (h *AnalyticsHandler) HandleFilter(w http.ResponseWriter, r *http.Request) {
	const op = "api.filter"
	var c model.Criteria
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	out, err := h.deps.Filter(r.Context(), c)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleTrend handles GET /api/performance/trend/{id}.
func (h *AnalyticsHandler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	const op = "api.trend"
	trend, err := h.deps.Trend(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, trend)
}
