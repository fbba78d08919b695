package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leadflow/backend/internal/apperr"
)

// Task is one distributed lead owned by exactly one agent.
type Task struct {
	ID        uuid.UUID    `json:"id"`
	FirstName string       `json:"firstName"`
	Phone     string       `json:"phone"`
	Notes     string       `json:"notes"`
	Status    TaskStatus   `json:"status"`
	Priority  TaskPriority `json:"priority"`
	AgentID   uuid.UUID    `json:"-"`
	Agent     *AgentRef    `json:"agent,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Validate checks the fields a task cannot be persisted without and
// canonicalizes its enums.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.FirstName) == "" {
		return fmt.Errorf("firstName is required: %w", apperr.ErrValidation)
	}
	if strings.TrimSpace(t.Phone) == "" {
		return fmt.Errorf("phone is required: %w", apperr.ErrValidation)
	}
	if t.AgentID == uuid.Nil {
		return fmt.Errorf("owning agent is required: %w", apperr.ErrValidation)
	}
	t.Status = NormalizeStatus(string(t.Status))
	t.Priority = NormalizePriority(string(t.Priority))
	return nil
}
