package registry

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/leadflow/backend/internal/apperr"
	"github.com/leadflow/backend/internal/models"
)

type CreateAgentRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Mobile   string `json:"mobile" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type CreateAgentResponse struct {
	Message string        `json:"message"`
	Agent   *models.Agent `json:"agent"`
}

type Handler struct {
	svc      Service
	validate *validator.Validate
	log      *slog.Logger
}

func NewHandler(svc Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, validate: validator.New(validator.WithRequiredStructEnabled()), log: log}
}

func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var req CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apperr.WriteMessage(w, http.StatusBadRequest, "name, a valid email, mobile and a password of at least 6 characters are required")
		return
	}
	agent, err := h.svc.CreateAgent(r.Context(), CreateAgentParams{
		Name:     req.Name,
		Email:    req.Email,
		Mobile:   req.Mobile,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			apperr.WriteMessage(w, http.StatusBadRequest, "Agent already exists")
			return
		}
		h.log.Error("create agent failed", "error", err)
		apperr.Write(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(CreateAgentResponse{Message: "Agent created successfully", Agent: agent})
}

func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListAgents(r.Context())
	if err != nil {
		h.log.Error("list agents failed", "error", err)
		apperr.Write(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(list)
}
