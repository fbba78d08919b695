package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/backend/internal/apperr"
	"github.com/leadflow/backend/internal/models"
	"github.com/leadflow/backend/internal/repository"
)

var taskColumns = []string{
	"id", "first_name", "phone", "notes", "status", "priority", "agent_id",
	"agent_name", "agent_email", "created_at", "updated_at",
}

func TestTaskRepo_Create(t *testing.T) {
	t.Run("Should insert a valid task and fill timestamps", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := repository.NewTaskRepo(mockPool)

		now := time.Now()
		task := &models.Task{
			ID:        uuid.New(),
			FirstName: "Ada",
			Phone:     "555-0100",
			Notes:     "call after 5",
			Status:    "completed",
			AgentID:   uuid.New(),
		}
		mockPool.ExpectQuery("INSERT INTO tasks").
			WithArgs(task.ID, "Ada", "555-0100", "call after 5", "Completed", "Medium", task.AgentID).
			WillReturnRows(mockPool.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		require.NoError(t, repo.Create(context.Background(), task))
		assert.Equal(t, now, task.CreatedAt)
		assert.Equal(t, models.StatusCompleted, task.Status)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should reject a task without phone before touching the database", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := repository.NewTaskRepo(mockPool)

		err = repo.Create(context.Background(), &models.Task{FirstName: "Ada", AgentID: uuid.New()})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrValidation))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestTaskRepo_List(t *testing.T) {
	t.Run("Should return tasks with agent joined", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := repository.NewTaskRepo(mockPool)

		agentID := uuid.New()
		newer, older := time.Now(), time.Now().Add(-time.Hour)
		rows := mockPool.NewRows(taskColumns).
			AddRow(uuid.New(), "Grace", "2", "", "In Progress", "High", agentID, "Agent A", "a@example.com", newer, newer).
			AddRow(uuid.New(), "Ada", "1", "note", "Pending", "Medium", agentID, "Agent A", "a@example.com", older, older)
		mockPool.ExpectQuery("(?s)SELECT (.+) FROM tasks t(.+)INNER JOIN agents a(.+)ORDER BY t.created_at DESC").
			WillReturnRows(rows)

		list, err := repo.List(context.Background())
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Grace", list[0].FirstName)
		assert.Equal(t, models.StatusInProgress, list[0].Status)
		assert.Equal(t, models.PriorityHigh, list[0].Priority)
		assert.Equal(t, agentID, list[1].AgentID)
		require.NotNil(t, list[1].Agent)
		assert.Equal(t, "a@example.com", list[1].Agent.Email)
		assert.Equal(t, "note", list[1].Notes)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestTaskRepo_UpdateStatusPriority(t *testing.T) {
	t.Run("Should normalize supplied values and return the updated task", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := repository.NewTaskRepo(mockPool)

		id, agentID := uuid.New(), uuid.New()
		now := time.Now()
		status := "completed"
		mockPool.ExpectExec("UPDATE tasks SET updated_at = now\\(\\), status = \\$1 WHERE id = \\$2").
			WithArgs("Completed", id.String()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectQuery("(?s)SELECT (.+) FROM tasks t(.+)WHERE t.id = \\$1").
			WithArgs(id).
			WillReturnRows(mockPool.NewRows(taskColumns).
				AddRow(id, "Ada", "1", "", "Completed", "Medium", agentID, "Agent A", "a@example.com", now, now))

		task, err := repo.UpdateStatusPriority(context.Background(), id, &status, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, task.Status)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should fall back to defaults for unparseable values", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := repository.NewTaskRepo(mockPool)

		id, agentID := uuid.New(), uuid.New()
		now := time.Now()
		status, priority := "whatever", "NORMAL"
		mockPool.ExpectExec("UPDATE tasks SET updated_at = now\\(\\), status = \\$1, priority = \\$2 WHERE id = \\$3").
			WithArgs("Pending", "Medium", id.String()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectQuery("(?s)SELECT (.+) FROM tasks t").
			WithArgs(id).
			WillReturnRows(mockPool.NewRows(taskColumns).
				AddRow(id, "Ada", "1", "", "Pending", "Medium", agentID, "Agent A", "a@example.com", now, now))

		_, err = repo.UpdateStatusPriority(context.Background(), id, &status, &priority)
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should return ErrNotFound for unknown id", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := repository.NewTaskRepo(mockPool)

		id := uuid.New()
		priority := "high"
		mockPool.ExpectExec("UPDATE tasks").
			WithArgs("High", id.String()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		task, err := repo.UpdateStatusPriority(context.Background(), id, nil, &priority)
		assert.Nil(t, task)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestTaskRepo_Delete(t *testing.T) {
	t.Run("Should return the deleted task", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := repository.NewTaskRepo(mockPool)

		id, agentID := uuid.New(), uuid.New()
		now := time.Now()
		mockPool.ExpectQuery("(?s)SELECT (.+) FROM tasks t").
			WithArgs(id).
			WillReturnRows(mockPool.NewRows(taskColumns).
				AddRow(id, "Ada", "1", "", "Pending", "Low", agentID, "Agent A", "a@example.com", now, now))
		mockPool.ExpectExec("DELETE FROM tasks WHERE id = \\$1").
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		task, err := repo.Delete(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, task.ID)
		assert.Equal(t, models.PriorityLow, task.Priority)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should return ErrNotFound when the task does not exist", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := repository.NewTaskRepo(mockPool)

		id := uuid.New()
		mockPool.ExpectQuery("(?s)SELECT (.+) FROM tasks t").
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)

		task, err := repo.Delete(context.Background(), id)
		assert.Nil(t, task)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
