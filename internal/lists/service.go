// Package lists imports uploaded lead lists and manages the resulting tasks.
package lists

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/leadflow/backend/internal/ingest"
	"github.com/leadflow/backend/internal/metrics"
	"github.com/leadflow/backend/internal/middleware"
	"github.com/leadflow/backend/internal/models"
	"github.com/leadflow/backend/internal/services"
	"github.com/leadflow/backend/internal/uploads"
)

// TaskStore is the task persistence behind the list endpoints.
type TaskStore interface {
	services.TaskCreator
	List(ctx context.Context) ([]*models.Task, error)
	UpdateStatusPriority(ctx context.Context, id uuid.UUID, status, priority *string) (*models.Task, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Task, error)
}

// FileReader returns the raw bytes of a stored upload.
type FileReader interface {
	Read(path string) ([]byte, error)
}

// ImportResult describes one distributed upload.
type ImportResult struct {
	Kind         ingest.Kind
	File         *uploads.File
	Distribution *services.DistributionResult
}

type Service interface {
	Import(ctx context.Context, file *uploads.File, kind ingest.Kind) (*ImportResult, error)
	ListTasks(ctx context.Context) ([]*models.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, status, priority *string) (*models.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) (*models.Task, error)
}

type service struct {
	tasks       TaskStore
	files       FileReader
	distributor *services.Distributor
	metrics     *metrics.Metrics
	log         *slog.Logger
}

func NewService(tasks TaskStore, files FileReader, distributor *services.Distributor, m *metrics.Metrics, log *slog.Logger) *service {
	if log == nil {
		log = slog.Default()
	}
	return &service{tasks: tasks, files: files, distributor: distributor, metrics: m, log: log}
}

var _ Service = (*service)(nil)

// Import parses a stored upload and distributes its records over the
// current agent pool. The pool is checked before the file is parsed.
func (s *service) Import(ctx context.Context, file *uploads.File, kind ingest.Kind) (*ImportResult, error) {
	res, err := s.importFile(ctx, file, kind)
	if err != nil {
		s.metrics.ObserveUpload(string(kind), metrics.OutcomeRejected)
		return nil, err
	}
	d := res.Distribution
	s.metrics.ObserveImport(string(kind), string(d.Outcome()), d.Distributed(), len(d.Failed))
	s.log.InfoContext(ctx, "list imported",
		"admin_id", middleware.AdminFromCtx(ctx),
		"file", file.StoredName,
		"kind", kind,
		"records", len(d.Assignments),
		"distributed", d.Distributed(),
		"failed", len(d.Failed),
	)
	return res, nil
}

func (s *service) importFile(ctx context.Context, file *uploads.File, kind ingest.Kind) (*ImportResult, error) {
	pool, err := s.distributor.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	data, err := s.files.Read(file.Path)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	records, err := ingest.Parse(kind, data)
	if err != nil {
		return nil, err
	}
	dist, err := s.distributor.Distribute(ctx, records, pool)
	if err != nil {
		return nil, err
	}
	return &ImportResult{Kind: kind, File: file, Distribution: dist}, nil
}

func (s *service) ListTasks(ctx context.Context) ([]*models.Task, error) {
	list, err := s.tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.Task{}
	}
	return list, nil
}

func (s *service) UpdateTask(ctx context.Context, id uuid.UUID, status, priority *string) (*models.Task, error) {
	return s.tasks.UpdateStatusPriority(ctx, id, status, priority)
}

func (s *service) DeleteTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return s.tasks.Delete(ctx, id)
}
