package uploads

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
)

type PurgeArgs struct {
	MaxAge time.Duration `json:"max_age"`
}

func (PurgeArgs) Kind() string { return "purge_uploads" }

// Purger is the part of Store the worker needs.
type Purger interface {
	PurgeOlderThan(age time.Duration) (int, error)
}

// PurgeWorker removes stored uploads that outlived the retention window.
type PurgeWorker struct {
	river.WorkerDefaults[PurgeArgs]
	store Purger
	log   *slog.Logger
}

func NewPurgeWorker(store Purger, log *slog.Logger) *PurgeWorker {
	if log == nil {
		log = slog.Default()
	}
	return &PurgeWorker{store: store, log: log}
}

func (w *PurgeWorker) Work(ctx context.Context, job *river.Job[PurgeArgs]) error {
	if job.Args.MaxAge <= 0 {
		return nil
	}
	removed, err := w.store.PurgeOlderThan(job.Args.MaxAge)
	if removed > 0 {
		w.log.InfoContext(ctx, "purged old uploads", "removed", removed, "max_age", job.Args.MaxAge.String())
	}
	return err
}

// PeriodicPurge schedules a purge of uploads older than retention, checked
// every interval.
func PeriodicPurge(retention, interval time.Duration) *river.PeriodicJob {
	return river.NewPeriodicJob(
		river.PeriodicInterval(interval),
		func() (river.JobArgs, *river.InsertOpts) {
			return PurgeArgs{MaxAge: retention}, nil
		},
		&river.PeriodicJobOpts{RunOnStart: true},
	)
}
