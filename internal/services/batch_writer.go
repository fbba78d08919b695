package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/leadflow/backend/internal/models"
)

// TaskCreator persists a single task.
type TaskCreator interface {
	Create(ctx context.Context, t *models.Task) error
}

// ItemResult is the persist outcome for tasks[Index].
type ItemResult struct {
	Index int
	Err   error
}

// BatchWriter creates tasks with at most Limit writes in flight.
type BatchWriter struct {
	Tasks TaskCreator
	Limit int
}

func NewBatchWriter(tasks TaskCreator, limit int) *BatchWriter {
	if limit <= 0 {
		limit = 1
	}
	return &BatchWriter{Tasks: tasks, Limit: limit}
}

// Write returns one result per task, in input order. Writes are not atomic
// across the batch. Once ctx is done, items not yet started fail with ctx.Err().
func (b *BatchWriter) Write(ctx context.Context, tasks []*models.Task) []ItemResult {
	results := make([]ItemResult, len(tasks))
	var g errgroup.Group
	g.SetLimit(b.Limit)
	for i, t := range tasks {
		results[i].Index = i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Err = b.Tasks.Create(ctx, t)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
