package lists

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/leadflow/backend/internal/apperr"
	"github.com/leadflow/backend/internal/metrics"
	"github.com/leadflow/backend/internal/models"
	"github.com/leadflow/backend/internal/services"
	"github.com/leadflow/backend/internal/uploads"
)

type FailedItem struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

type UploadResponse struct {
	Message          string        `json:"message"`
	DistributedCount int           `json:"distributedCount"`
	FailedCount      int           `json:"failedCount"`
	Failed           []FailedItem  `json:"failed,omitempty"`
	File             *uploads.File `json:"file"`
}

type UpdateTaskRequest struct {
	Status   *string `json:"status"`
	Priority *string `json:"priority"`
}

type DeleteTaskResponse struct {
	Message     string       `json:"message"`
	DeletedItem *models.Task `json:"deletedItem"`
}

const msgTaskNotFound = "Task not found"

type Handler struct {
	svc      Service
	store    *uploads.Store
	maxBytes int64
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewHandler(svc Service, store *uploads.Store, maxBytes int64, m *metrics.Metrics, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, store: store, maxBytes: maxBytes, metrics: m, log: log}
}

// Upload stores the multipart file and distributes its rows. It answers 201
// when every task persisted, 207 when only some did and 500 when none did.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	file, kind, err := uploads.Receive(w, r, h.store, h.maxBytes)
	if err != nil {
		h.metrics.ObserveUpload(string(kind), metrics.OutcomeRejected)
		h.writeError(w, "receive upload failed", err)
		return
	}
	res, err := h.svc.Import(r.Context(), file, kind)
	if err != nil {
		h.writeError(w, "import failed", err)
		return
	}

	d := res.Distribution
	resp := UploadResponse{
		DistributedCount: d.Distributed(),
		FailedCount:      len(d.Failed),
		File:             file,
	}
	for _, f := range d.Failed {
		resp.Failed = append(resp.Failed, FailedItem{Index: f.Index, Message: failureMessage(f.Err)})
	}

	status := http.StatusCreated
	switch d.Outcome() {
	case services.OutcomeComplete:
		resp.Message = "File uploaded & distributed successfully"
	case services.OutcomeEmpty:
		resp.Message = "File uploaded, no rows to distribute"
	case services.OutcomePartial:
		status = http.StatusMultiStatus
		resp.Message = "File uploaded, some tasks could not be saved"
	case services.OutcomeFailed:
		status = http.StatusInternalServerError
		resp.Message = "File uploaded, but no tasks could be saved"
	}
	writeJSON(w, status, resp)
}

// failureMessage hides driver errors the same way apperr.Write does.
func failureMessage(err error) string {
	if apperr.Status(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListTasks(r.Context())
	if err != nil {
		h.writeError(w, "list tasks failed", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		apperr.WriteMessage(w, http.StatusNotFound, msgTaskNotFound)
		return
	}
	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Status == nil && req.Priority == nil {
		apperr.WriteMessage(w, http.StatusBadRequest, "status or priority is required")
		return
	}
	task, err := h.svc.UpdateTask(r.Context(), id, req.Status, req.Priority)
	if errors.Is(err, apperr.ErrNotFound) {
		apperr.WriteMessage(w, http.StatusNotFound, msgTaskNotFound)
		return
	}
	if err != nil {
		h.writeError(w, "update task failed", err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		apperr.WriteMessage(w, http.StatusNotFound, msgTaskNotFound)
		return
	}
	task, err := h.svc.DeleteTask(r.Context(), id)
	if errors.Is(err, apperr.ErrNotFound) {
		apperr.WriteMessage(w, http.StatusNotFound, msgTaskNotFound)
		return
	}
	if err != nil {
		h.writeError(w, "delete task failed", err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteTaskResponse{Message: "Task deleted successfully", DeletedItem: task})
}

func (h *Handler) writeError(w http.ResponseWriter, msg string, err error) {
	if apperr.Status(err) == http.StatusInternalServerError {
		h.log.Error(msg, "error", err)
	}
	apperr.Write(w, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
