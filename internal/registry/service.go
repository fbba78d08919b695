// Package registry is the agent directory: creating pool members and
// listing them.
package registry

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/leadflow/backend/internal/models"
)

// AgentStore is the persistence the directory needs. Create must return an
// error wrapping apperr.ErrConflict for a duplicate email.
type AgentStore interface {
	Create(ctx context.Context, ag *models.Agent) error
	List(ctx context.Context) ([]*models.Agent, error)
}

type CreateAgentParams struct {
	Name     string
	Email    string
	Mobile   string
	Password string
}

type Service interface {
	CreateAgent(ctx context.Context, p CreateAgentParams) (*models.Agent, error)
	ListAgents(ctx context.Context) ([]*models.Agent, error)
}

type service struct {
	repo AgentStore
	cost int
}

func NewService(repo AgentStore) *service {
	return &service{repo: repo, cost: bcrypt.DefaultCost}
}

var _ Service = (*service)(nil)

func (s *service) CreateAgent(ctx context.Context, p CreateAgentParams) (*models.Agent, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.cost)
	if err != nil {
		return nil, err
	}
	ag := &models.Agent{
		Name:         strings.TrimSpace(p.Name),
		Email:        strings.ToLower(strings.TrimSpace(p.Email)),
		Mobile:       strings.TrimSpace(p.Mobile),
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, ag); err != nil {
		return nil, err
	}
	return ag, nil
}

func (s *service) ListAgents(ctx context.Context) ([]*models.Agent, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.Agent{}
	}
	return list, nil
}
