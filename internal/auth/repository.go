package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/leadflow/backend/internal/apperr"
	"github.com/leadflow/backend/internal/repository"
)

// Admin is an operator account allowed to manage agents and lists.
type Admin struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

type Repository struct {
	db repository.DB
}

func NewRepository(db repository.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new admin. A duplicate email surfaces as apperr.ErrConflict.
func (r *Repository) Create(ctx context.Context, a *Admin) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO admins (id, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, a.ID, a.Email, a.Name, a.PasswordHash).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return fmt.Errorf("admin %s: %w", a.Email, apperr.ErrConflict)
		}
		return err
	}
	return nil
}

// GetByEmail returns the admin with that email, or apperr.ErrNotFound.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	var a Admin
	err := pgxscan.Get(ctx, r.db, &a, `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM admins WHERE email = $1
	`, email)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, fmt.Errorf("admin %s: %w", email, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &a, nil
}
