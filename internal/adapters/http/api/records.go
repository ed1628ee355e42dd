package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/wicket/internal/adapters/repository"
	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/internal/domain/training"
)

// RecordDependencies defines the record CRUD operations.
type RecordDependencies interface {
	List(ctx context.Context) ([]model.PerformanceRecord, error)
	Create(ctx context.Context, rec model.PerformanceRecord) (model.PerformanceRecord, error)
	Update(ctx context.Context, id string, rec model.PerformanceRecord) (model.PerformanceRecord, error)
	Delete(ctx context.Context, id string) error
}

// retrainFailedResponse reports a write that was stored but could not be
// followed by a successful retrain.
type retrainFailedResponse struct {
	Code    string                   `json:"code"`
	Message string                   `json:"message"`
	Record  *model.PerformanceRecord `json:"record,omitempty"`
}

// RecordsHandler handles performance record requests.
type RecordsHandler struct {
	deps RecordDependencies
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps RecordDependencies) *RecordsHandler {
	return &RecordsHandler{deps: deps}
}

// HandleList handles GET /api/performance.
func (h *RecordsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_records"
	records, err := h.deps.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleCreate handles POST /api/performance.
func (h *RecordsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_record"
	var rec model.PerformanceRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	saved, err := h.deps.Create(r.Context(), rec)
	if err != nil {
		writeMutationError(w, op, saved, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// HandleUpdate handles PUT /api/performance/{id}.
func (h *RecordsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_record"
	var rec model.PerformanceRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	saved, err := h.deps.Update(r.Context(), r.PathValue("id"), rec)
	if err != nil {
		writeMutationError(w, op, saved, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// HandleDelete handles DELETE /api/performance/{id}.
func (h *RecordsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_record"
	if err := h.deps.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeMutationError(w, op, model.PerformanceRecord{}, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeMutationError maps create/update/delete failures to responses.
// saved is the persisted record, if any, when the retrain failed.
func writeMutationError(w http.ResponseWriter, op string, saved model.PerformanceRecord, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, "invalid_record", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, training.ErrRetrain):
		resp := retrainFailedResponse{Code: "retrain_failed", Message: Wrap(op, err).Error()}
		if saved.ID != "" {
			resp.Record = &saved
		}
		writeJSON(w, http.StatusInternalServerError, resp)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}
