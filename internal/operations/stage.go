// Package operations sequences the registration pipeline: fetch the
// report and rosters, normalize, expand, backfill, match, aggregate,
// persist. Each stage is a Step; the Manager runs them in order and
// reports progress.
package operations

import (
	"context"
	"time"

	"regpulse/pkg/contracts/domain"
)

// Step status values.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Stage identifiers.
const (
	StageIDFetch     = "fetch"
	StageIDNormalize = "normalize"
	StageIDExpand    = "expand"
	StageIDBackfill  = "backfill"
	StageIDMatch     = "match"
	StageIDAggregate = "aggregate"
	StageIDPersist   = "persist"
)

// WebSocket event types.
const (
	EventTypeOperationStatus   = "operation:status"
	EventTypeOperationProgress = "operation:progress"
	EventTypeOperationComplete = "operation:complete"
	EventTypeOperationError    = "operation:error"
)

// Step is one pipeline stage. Execute reads and mutates the shared run
// state; returning an error aborts the run.
type Step interface {
	ID() string
	Name() string
	Execute(ctx context.Context, state *State) error
}

// StepState is the externally visible status of one stage within a run.
type StepState struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// State is the data passed between stages of one run. Stages fill in
// their slice and update the report counters as they go.
type State struct {
	RunID string

	// Raw inputs, populated by the fetch stage.
	Rows       [][]string
	Members    []domain.GroupMember
	Historical []domain.HistoricalParticipant

	// The canonical set, reshaped in place by the processing stages.
	Registrations []domain.Registration

	// Matching outputs.
	Links     []domain.MatchLink
	Returning map[string]bool

	// Final outputs.
	Snapshot *domain.StatsSnapshot
	Report   *domain.RunReport
}

// NewState creates the shared state for one run.
func NewState(runID string) *State {
	return &State{
		RunID: runID,
		Report: &domain.RunReport{
			RunID:     runID,
			StartedAt: time.Now().UTC(),
		},
	}
}

// recordStageCount appends one stage's output size to the report.
func (s *State) recordStageCount(stage string, count int) {
	s.Report.StageCounts = append(s.Report.StageCounts,
		domain.StageCount{Stage: stage, Count: count})
}
