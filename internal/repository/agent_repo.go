package repository

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/leadflow/backend/internal/models"
)

type AgentRepo struct {
	db DB
}

func NewAgentRepo(db DB) *AgentRepo {
	return &AgentRepo{db: db}
}

const agentColumns = `id, name, email, mobile, password_hash, created_at, updated_at`

// Create inserts ag. A duplicate email surfaces as apperr.ErrConflict.
func (r *AgentRepo) Create(ctx context.Context, ag *models.Agent) error {
	if ag.ID == uuid.Nil {
		ag.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO agents (id, name, email, mobile, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, ag.ID, ag.Name, ag.Email, ag.Mobile, ag.PasswordHash).Scan(&ag.CreatedAt, &ag.UpdatedAt)
	return translate(err, fmt.Sprintf("agent %s", ag.Email))
}

// List returns all agents in registration order, which is the
// round-robin order used for distribution.
func (r *AgentRepo) List(ctx context.Context) ([]*models.Agent, error) {
	var list []*models.Agent
	if err := pgxscan.Select(ctx, r.db, &list, `SELECT `+agentColumns+` FROM agents ORDER BY created_at ASC, id ASC`); err != nil {
		return nil, err
	}
	return list, nil
}
