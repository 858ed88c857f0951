package operations

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/internal/shared/testutil"
	"regpulse/pkg/contracts/domain"
)

type fakeStep struct {
	id      string
	execute func(ctx context.Context, state *State) error
}

func (s *fakeStep) ID() string   { return s.id }
func (s *fakeStep) Name() string { return s.id }
func (s *fakeStep) Execute(ctx context.Context, state *State) error {
	if s.execute == nil {
		return nil
	}
	return s.execute(ctx, state)
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	messages []string
}

func (b *fakeBroadcaster) Broadcast(msgType string, _ interface{}) {
	b.mu.Lock()
	b.messages = append(b.messages, msgType)
	b.mu.Unlock()
}

type fakeSink struct {
	mu      sync.Mutex
	reports []*domain.RunReport
}

func (s *fakeSink) SaveRunReport(_ context.Context, report *domain.RunReport) error {
	s.mu.Lock()
	s.reports = append(s.reports, report)
	s.mu.Unlock()
	return nil
}

func TestManagerRun_Success(t *testing.T) {
	logger, _ := testutil.Logger(t)
	broadcaster := &fakeBroadcaster{}
	sink := &fakeSink{}

	var order []string
	step := func(id string) *fakeStep {
		return &fakeStep{id: id, execute: func(_ context.Context, state *State) error {
			order = append(order, id)
			state.recordStageCount(id, 1)
			return nil
		}}
	}

	m, err := NewManager(logger, nil, nil, broadcaster, sink,
		step("one"), step("two"), step("three"))
	require.NoError(t, err)

	report, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two", "three"}, order)
	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.StartedAt.IsZero())
	assert.False(t, report.FinishedAt.IsZero())
	assert.Len(t, report.StageCounts, 3)

	require.Len(t, sink.reports, 1)
	assert.Equal(t, report.RunID, sink.reports[0].RunID)

	for _, s := range m.StepStates() {
		assert.Equal(t, StatusCompleted, s.Status)
	}
	assert.Contains(t, broadcaster.messages, EventTypeOperationStatus)
	assert.Contains(t, broadcaster.messages, EventTypeOperationProgress)
	assert.Contains(t, broadcaster.messages, EventTypeOperationComplete)
	assert.False(t, m.Running())
}

func TestManagerRun_StepFailureAborts(t *testing.T) {
	logger, _ := testutil.Logger(t)
	broadcaster := &fakeBroadcaster{}
	sink := &fakeSink{}

	boom := errors.New("fetch blew up")
	reached := false

	m, err := NewManager(logger, nil, nil, broadcaster, sink,
		&fakeStep{id: "failing", execute: func(context.Context, *State) error { return boom }},
		&fakeStep{id: "never", execute: func(context.Context, *State) error {
			reached = true
			return nil
		}},
	)
	require.NoError(t, err)

	report, runErr := m.Run(context.Background())
	require.ErrorIs(t, runErr, boom)
	require.NotNil(t, report, "the partial report survives a failed run")
	assert.False(t, reached, "stages after the failure never run")

	require.Len(t, sink.reports, 1, "failed runs still persist their report")

	states := m.StepStates()
	assert.Equal(t, StatusFailed, states[0].Status)
	assert.Equal(t, boom.Error(), states[0].Error)
	assert.Equal(t, StatusPending, states[1].Status)
	assert.Contains(t, broadcaster.messages, EventTypeOperationError)
}

func TestManagerRun_RejectsConcurrentRuns(t *testing.T) {
	logger, _ := testutil.Logger(t)

	release := make(chan struct{})
	started := make(chan struct{})

	m, err := NewManager(logger, nil, nil, nil, nil,
		&fakeStep{id: "slow", execute: func(ctx context.Context, _ *State) error {
			close(started)
			<-release
			return nil
		}},
	)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = m.Run(context.Background())
	}()

	<-started
	assert.True(t, m.Running())

	_, err = m.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(release)
	<-done
	assert.False(t, m.Running())
}

func TestManagerRun_ContextCancellation(t *testing.T) {
	logger, _ := testutil.Logger(t)

	ctx, cancel := context.WithCancel(context.Background())

	m, err := NewManager(logger, nil, nil, nil, nil,
		&fakeStep{id: "canceller", execute: func(context.Context, *State) error {
			cancel()
			return nil
		}},
		&fakeStep{id: "after", execute: func(context.Context, *State) error {
			t.Fatal("must not run after cancellation")
			return nil
		}},
	)
	require.NoError(t, err)

	_, runErr := m.Run(ctx)
	assert.ErrorIs(t, runErr, context.Canceled)
}

func TestStateRecordStageCount(t *testing.T) {
	state := NewState("run-1")
	state.recordStageCount(StageIDNormalize, 42)

	require.Len(t, state.Report.StageCounts, 1)
	assert.Equal(t, domain.StageCount{Stage: StageIDNormalize, Count: 42}, state.Report.StageCounts[0])
}
