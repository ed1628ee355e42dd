package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/wicket/internal/domain/classifier"
	"github.com/okian/wicket/internal/domain/features"
	"github.com/okian/wicket/internal/domain/types"
	"github.com/okian/wicket/pkg/logger"
)

// Manual training outcomes.
const (
	MessageTrained     = "Model training completed successfully."
	MessageTrainFailed = "Failed to train the model."
)

// ClassifierDependencies defines prediction and manual training.
type ClassifierDependencies interface {
	Predict(ctx context.Context, v features.Vector) (bool, error)
	Train(ctx context.Context) (types.TrainResult, error)
}

// ClassifierHandler handles predict and train requests.
type ClassifierHandler struct {
	deps ClassifierDependencies
}

// NewClassifierHandler creates a new classifier handler.
func NewClassifierHandler(deps ClassifierDependencies) *ClassifierHandler {
	return &ClassifierHandler{deps: deps}
}

// HandlePredict handles POST /api/performance/predict. The body maps each
// metric name to its value; the response is a bare JSON boolean.
func (h *ClassifierHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	var metrics map[string]*float64
	if err := json.NewDecoder(r.Body).Decode(&metrics); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	v, err := features.FromMetrics(metrics)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_metrics", WrapKind(op, ErrBadRequest, err))
		return
	}
	ok, err := h.deps.Predict(r.Context(), v)
	if errors.Is(err, classifier.ErrUntrained) {
		writeError(w, http.StatusServiceUnavailable, "untrained", WrapKind(op, ErrUnavailable, err))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ok)
}

// HandleTrain handles POST /api/performance/train. The outcome is reported
// as text; the cause of a failure is only logged.
func (h *ClassifierHandler) HandleTrain(w http.ResponseWriter, r *http.Request) {
	const op = "api.train"
	res, err := h.deps.Train(r.Context())
	if err != nil {
		logger.Get().Error(r.Context(), "manual training failed", logger.Error(Wrap(op, err)))
		writeText(w, http.StatusInternalServerError, MessageTrainFailed)
		return
	}
	logger.Get().Debug(r.Context(), "manual training completed",
		logger.Int("samples", res.Samples),
		logger.Uint64("generation", res.Generation),
	)
	writeText(w, http.StatusOK, MessageTrained)
}
