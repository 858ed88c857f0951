package operations

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"regpulse/pkg/contracts/domain"
)

// ErrRunInProgress is returned when a run is requested while another is
// still executing. Concurrent runs would race on the store's
// replace-on-write snapshot.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// Broadcaster pushes progress messages to interested clients. The
// websocket hub satisfies this; a nil Broadcaster disables progress
// reporting.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{})
}

// ReportSink persists the final run report.
type ReportSink interface {
	SaveRunReport(ctx context.Context, report *domain.RunReport) error
}

// Manager executes the pipeline stages in order. At most one run is
// active at a time.
type Manager struct {
	steps       []Step
	logger      *slog.Logger
	broadcaster Broadcaster
	reports     ReportSink
	tracer      trace.Tracer

	runCounter    metric.Int64Counter
	rowCounter    metric.Int64Counter
	matchCounter  metric.Int64Counter
	stageDuration metric.Float64Histogram

	mu      sync.Mutex
	running bool
	states  []StepState
}

// NewManager creates a Manager over the given stages. tracer, meter,
// broadcaster and reports may be nil; the corresponding concern is then
// skipped.
func NewManager(logger *slog.Logger, tracer trace.Tracer, meter metric.Meter, broadcaster Broadcaster, reports ReportSink, steps ...Step) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		steps:       steps,
		logger:      logger.With(slog.String("component", "operations.manager")),
		broadcaster: broadcaster,
		reports:     reports,
		tracer:      tracer,
	}

	if meter != nil {
		var err error
		m.runCounter, err = meter.Int64Counter("pipeline_runs_total",
			metric.WithDescription("Completed pipeline runs by outcome"))
		if err != nil {
			return nil, err
		}
		m.rowCounter, err = meter.Int64Counter("pipeline_rows_total",
			metric.WithDescription("Report rows processed by outcome"))
		if err != nil {
			return nil, err
		}
		m.matchCounter, err = meter.Int64Counter("pipeline_match_outcomes_total",
			metric.WithDescription("Member matching outcomes by kind"))
		if err != nil {
			return nil, err
		}
		m.stageDuration, err = meter.Float64Histogram("pipeline_stage_duration_seconds",
			metric.WithDescription("Wall-clock duration of each pipeline stage"),
			metric.WithUnit("s"))
		if err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Running reports whether a run is currently executing.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// StepStates returns a copy of the latest per-stage status.
func (m *Manager) StepStates() []StepState {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]StepState, len(m.states))
	copy(out, m.states)
	return out
}

// Run executes every stage in order and returns the run report. The
// report is returned even when a stage fails, carrying the counters
// accumulated up to the failure.
func (m *Manager) Run(ctx context.Context) (*domain.RunReport, error) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil, ErrRunInProgress
	}
	m.running = true
	m.states = make([]StepState, len(m.steps))
	for i, step := range m.steps {
		m.states[i] = StepState{ID: step.ID(), Name: step.Name(), Status: StatusPending}
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	state := NewState(uuid.New().String())
	logger := m.logger.With(slog.String("run_id", state.RunID))

	if m.tracer != nil {
		var span trace.Span
		ctx, span = m.tracer.Start(ctx, "pipeline.run",
			trace.WithAttributes(attribute.String("run_id", state.RunID)))
		defer span.End()
	}

	logger.InfoContext(ctx, "pipeline run started", slog.Int("stages", len(m.steps)))
	m.broadcast(EventTypeOperationStatus, map[string]interface{}{
		"run_id": state.RunID,
		"status": StatusRunning,
	})

	var runErr error
	for i, step := range m.steps {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := m.runStep(ctx, logger, state, i, step); err != nil {
			runErr = err
			break
		}
	}

	state.Report.FinishedAt = time.Now().UTC()
	m.recordRun(ctx, state.Report, runErr)

	if m.reports != nil {
		if err := m.reports.SaveRunReport(ctx, state.Report); err != nil {
			logger.ErrorContext(ctx, "failed to persist run report",
				slog.String("error", err.Error()))
		}
	}

	if runErr != nil {
		logger.ErrorContext(ctx, "pipeline run failed",
			slog.String("error", runErr.Error()),
			slog.Duration("duration", state.Report.FinishedAt.Sub(state.Report.StartedAt)))
		m.broadcast(EventTypeOperationError, map[string]interface{}{
			"run_id": state.RunID,
			"error":  runErr.Error(),
		})
		return state.Report, runErr
	}

	logger.InfoContext(ctx, "pipeline run complete",
		slog.Int("registrations", len(state.Registrations)),
		slog.Int("matched", state.Report.MembersMatched),
		slog.Duration("duration", state.Report.FinishedAt.Sub(state.Report.StartedAt)))
	m.broadcast(EventTypeOperationComplete, state.Report)

	return state.Report, nil
}

// runStep executes one stage with tracing, timing and progress updates.
func (m *Manager) runStep(ctx context.Context, logger *slog.Logger, state *State, i int, step Step) error {
	stepCtx := ctx
	if m.tracer != nil {
		var span trace.Span
		stepCtx, span = m.tracer.Start(ctx, "pipeline.stage."+step.ID())
		defer span.End()
	}

	m.setStepStatus(i, StatusRunning, "")
	m.broadcastProgress(state.RunID, i, step, StatusRunning)

	started := time.Now()
	logger.InfoContext(stepCtx, "stage started", slog.String("stage", step.ID()))

	err := step.Execute(stepCtx, state)
	elapsed := time.Since(started)

	if m.stageDuration != nil {
		m.stageDuration.Record(ctx, elapsed.Seconds(),
			metric.WithAttributes(attribute.String("stage", step.ID())))
	}

	if err != nil {
		m.setStepStatus(i, StatusFailed, err.Error())
		m.broadcastProgress(state.RunID, i, step, StatusFailed)
		return err
	}

	m.setStepStatus(i, StatusCompleted, "")
	m.broadcastProgress(state.RunID, i, step, StatusCompleted)
	logger.InfoContext(stepCtx, "stage complete",
		slog.String("stage", step.ID()),
		slog.Duration("duration", elapsed))
	return nil
}

func (m *Manager) setStepStatus(i int, status, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	switch status {
	case StatusRunning:
		m.states[i].StartedAt = now
	case StatusCompleted, StatusFailed:
		m.states[i].FinishedAt = now
	}
	m.states[i].Status = status
	m.states[i].Error = errMsg
}

func (m *Manager) broadcastProgress(runID string, i int, step Step, status string) {
	m.broadcast(EventTypeOperationProgress, map[string]interface{}{
		"run_id": runID,
		"stage":  step.ID(),
		"name":   step.Name(),
		"status": status,
		"index":  i,
		"total":  len(m.steps),
	})
}

func (m *Manager) broadcast(msgType string, payload interface{}) {
	if m.broadcaster == nil {
		return
	}
	m.broadcaster.Broadcast(msgType, payload)
}

func (m *Manager) recordRun(ctx context.Context, report *domain.RunReport, runErr error) {
	if m.runCounter == nil {
		return
	}
	outcome := "success"
	if runErr != nil {
		outcome = "failure"
	}
	m.runCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	m.rowCounter.Add(ctx, int64(report.RowsParsed),
		metric.WithAttributes(attribute.String("outcome", "parsed")))
	m.rowCounter.Add(ctx, int64(report.MalformedRows),
		metric.WithAttributes(attribute.String("outcome", "malformed")))

	m.matchCounter.Add(ctx, int64(report.MembersMatched),
		metric.WithAttributes(attribute.String("kind", "matched")))
	m.matchCounter.Add(ctx, int64(report.AmbiguousRejected),
		metric.WithAttributes(attribute.String("kind", "ambiguous_rejected")))
	m.matchCounter.Add(ctx, int64(report.UnmatchedMembers),
		metric.WithAttributes(attribute.String("kind", "unmatched")))
}
