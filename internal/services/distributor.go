package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/leadflow/backend/internal/apperr"
	"github.com/leadflow/backend/internal/ingest"
	"github.com/leadflow/backend/internal/models"
)

// AgentPool lists the agents eligible to receive leads, in distribution order.
type AgentPool interface {
	List(ctx context.Context) ([]*models.Agent, error)
}

// Assignment pairs record Index with the agent that owns it.
type Assignment struct {
	Index  int
	Record ingest.Record
	Agent  *models.Agent
}

// DistributionOutcome summarizes how much of a batch was persisted.
type DistributionOutcome string

const (
	OutcomeComplete DistributionOutcome = "complete"
	OutcomePartial  DistributionOutcome = "partial"
	OutcomeFailed   DistributionOutcome = "failed"
	OutcomeEmpty    DistributionOutcome = "empty"
)

// DistributionResult reports every assignment and which of them failed to persist.
type DistributionResult struct {
	Assignments []Assignment
	Tasks       []*models.Task
	Failed      []ItemResult
}

// Distributed is the number of tasks actually persisted.
func (r *DistributionResult) Distributed() int {
	return len(r.Assignments) - len(r.Failed)
}

func (r *DistributionResult) Outcome() DistributionOutcome {
	switch {
	case len(r.Assignments) == 0:
		return OutcomeEmpty
	case len(r.Failed) == 0:
		return OutcomeComplete
	case len(r.Failed) == len(r.Assignments):
		return OutcomeFailed
	default:
		return OutcomePartial
	}
}

// Assign pairs record i with pool[i mod len(pool)]. It fails before looking
// at any record when the pool is empty.
func Assign(records []ingest.Record, pool []*models.Agent) ([]Assignment, error) {
	if len(pool) == 0 {
		return nil, apperr.ErrNoAgentsAvailable
	}
	out := make([]Assignment, len(records))
	for i, rec := range records {
		out[i] = Assignment{Index: i, Record: rec, Agent: pool[i%len(pool)]}
	}
	return out, nil
}

// Distributor assigns records round-robin over an agent snapshot and
// persists the resulting tasks through a BatchWriter.
type Distributor struct {
	Agents AgentPool
	Writer *BatchWriter
	Logger *slog.Logger
}

func NewDistributor(agents AgentPool, writer *BatchWriter, logger *slog.Logger) *Distributor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Distributor{Agents: agents, Writer: writer, Logger: logger}
}

// Snapshot captures the agent pool for one distribution run. Agents created
// after this call are not considered for the run.
func (d *Distributor) Snapshot(ctx context.Context) ([]*models.Agent, error) {
	agents, err := d.Agents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot agent pool: %w", err)
	}
	if len(agents) == 0 {
		return nil, apperr.ErrNoAgentsAvailable
	}
	pool := make([]*models.Agent, len(agents))
	copy(pool, agents)
	return pool, nil
}

// Distribute persists one task per record. Individual persist failures do
// not abort the batch; they are returned in the result's Failed list.
func (d *Distributor) Distribute(ctx context.Context, records []ingest.Record, pool []*models.Agent) (*DistributionResult, error) {
	assignments, err := Assign(records, pool)
	if err != nil {
		return nil, err
	}

	tasks := make([]*models.Task, len(assignments))
	for i, a := range assignments {
		tasks[i] = &models.Task{
			ID:        uuid.New(),
			FirstName: a.Record.FirstName,
			Phone:     a.Record.Phone,
			Notes:     a.Record.Notes,
			Status:    a.Record.Status,
			Priority:  a.Record.Priority,
			AgentID:   a.Agent.ID,
			Agent:     &models.AgentRef{ID: a.Agent.ID, Name: a.Agent.Name, Email: a.Agent.Email},
		}
	}

	results := d.Writer.Write(ctx, tasks)
	res := &DistributionResult{Assignments: assignments}
	for _, r := range results {
		if r.Err != nil {
			d.Logger.Warn("task persist failed",
				"index", r.Index, "agent_id", assignments[r.Index].Agent.ID, "error", r.Err)
			res.Failed = append(res.Failed, r)
			continue
		}
		res.Tasks = append(res.Tasks, tasks[r.Index])
	}
	return res, nil
}
