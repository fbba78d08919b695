package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/leadflow/backend/internal/apperr"
	"github.com/leadflow/backend/internal/models"
)

type TaskRepo struct {
	db DB
}

func NewTaskRepo(db DB) *TaskRepo {
	return &TaskRepo{db: db}
}

// taskRow is a task joined with its owning agent.
type taskRow struct {
	ID         uuid.UUID `db:"id"`
	FirstName  string    `db:"first_name"`
	Phone      string    `db:"phone"`
	Notes      string    `db:"notes"`
	Status     string    `db:"status"`
	Priority   string    `db:"priority"`
	AgentID    uuid.UUID `db:"agent_id"`
	AgentName  string    `db:"agent_name"`
	AgentEmail string    `db:"agent_email"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r taskRow) toModel() *models.Task {
	return &models.Task{
		ID:        r.ID,
		FirstName: r.FirstName,
		Phone:     r.Phone,
		Notes:     r.Notes,
		Status:    models.NormalizeStatus(r.Status),
		Priority:  models.NormalizePriority(r.Priority),
		AgentID:   r.AgentID,
		Agent:     &models.AgentRef{ID: r.AgentID, Name: r.AgentName, Email: r.AgentEmail},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const selectTaskWithAgent = `
	SELECT t.id, t.first_name, t.phone, t.notes, t.status, t.priority, t.agent_id,
	       a.name AS agent_name, a.email AS agent_email, t.created_at, t.updated_at
	FROM tasks t
	INNER JOIN agents a ON a.id = t.agent_id`

// Create validates t and inserts it, filling in its timestamps.
func (r *TaskRepo) Create(ctx context.Context, t *models.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO tasks (id, first_name, phone, notes, status, priority, agent_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, t.ID, t.FirstName, t.Phone, t.Notes, string(t.Status), string(t.Priority), t.AgentID).Scan(&t.CreatedAt, &t.UpdatedAt)
	return translate(err, "create task")
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var row taskRow
	if err := pgxscan.Get(ctx, r.db, &row, selectTaskWithAgent+` WHERE t.id = $1`, id); err != nil {
		return nil, translate(err, fmt.Sprintf("task %s", id))
	}
	return row.toModel(), nil
}

// List returns every task with its agent joined, newest first.
func (r *TaskRepo) List(ctx context.Context) ([]*models.Task, error) {
	var rows []taskRow
	if err := pgxscan.Select(ctx, r.db, &rows, selectTaskWithAgent+` ORDER BY t.created_at DESC, t.id`); err != nil {
		return nil, err
	}
	list := make([]*models.Task, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toModel())
	}
	return list, nil
}

// UpdateStatusPriority sets whichever of status and priority is non-nil,
// normalizing both before they are written.
func (r *TaskRepo) UpdateStatusPriority(ctx context.Context, id uuid.UUID, status, priority *string) (*models.Task, error) {
	q := sq.Update("tasks").
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar)
	if status != nil {
		q = q.Set("status", string(models.NormalizeStatus(*status)))
	}
	if priority != nil {
		q = q.Set("priority", string(models.NormalizePriority(*priority)))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build task update: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("task %s: %w", id, apperr.ErrNotFound)
	}
	return r.GetByID(ctx, id)
}

// Delete removes the task and returns it as it was before deletion.
func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("task %s: %w", id, apperr.ErrNotFound)
	}
	return t, nil
}
