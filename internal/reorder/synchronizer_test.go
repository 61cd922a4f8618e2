package reorder

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/worldboard/server/internal/model"
)

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Reorder(ctx context.Context, worldID uuid.UUID, updates []model.PositionUpdate) (int64, error) {
	args := m.Called(ctx, worldID, updates)
	return args.Get(0).(int64), args.Error(1)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var worldID = uuid.MustParse("5b1d6f0e-7a0c-4c43-8f0e-3f3a0d2c0001")

func tasks(names ...string) []model.Task {
	out := make([]model.Task, len(names))
	for i, name := range names {
		out[i] = model.Task{
			ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)),
			WorldID:     worldID,
			Description: name,
			Position:    i,
		}
	}
	return out
}

func names(items []model.Task) []string {
	out := make([]string, len(items))
	for i, task := range items {
		out[i] = task.Description
	}
	return out
}

func batch(items []model.Task, order ...string) []model.PositionUpdate {
	byName := make(map[string]uuid.UUID, len(items))
	for _, task := range items {
		byName[task.Description] = task.ID
	}
	out := make([]model.PositionUpdate, len(order))
	for i, name := range order {
		out[i] = model.PositionUpdate{TaskID: byName[name], Position: i}
	}
	return out
}

func listOf(version int64, items []model.Task) model.TaskList {
	return model.TaskList{WorldID: worldID, Version: version, Tasks: items}
}

func wait(t *testing.T, s *Synchronizer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func TestScenario_InFlightReadDoesNotRevert(t *testing.T) {
	ctx := context.Background()
	initial := tasks("T1", "T2")
	release := make(chan struct{})

	tr := new(mockTransport)
	tr.On("Reorder", mock.Anything, worldID, batch(initial, "T2", "T1")).
		Run(func(mock.Arguments) { <-release }).
		Return(int64(3), nil).Once()

	s := NewSynchronizer(worldID, tr)
	require.True(t, s.Apply(listOf(2, initial)))

	require.NoError(t, s.Move(ctx, 1, 0))
	assert.Equal(t, []string{"T2", "T1"}, names(s.Items()))
	assert.Equal(t, StateSaving, s.State())
	assert.True(t, s.Locked())

	// The pre-write order arrives while the write is in flight.
	assert.False(t, s.Apply(listOf(2, initial)))
	assert.Equal(t, []string{"T2", "T1"}, names(s.Items()))

	close(release)
	wait(t, s)

	assert.Equal(t, StateIdle, s.State())
	assert.False(t, s.Locked())

	// Still older than the acknowledged write.
	assert.False(t, s.Apply(listOf(2, initial)))
	assert.Equal(t, []string{"T2", "T1"}, names(s.Items()))

	confirmed := []model.Task{initial[1], initial[0]}
	model.DensePositions(confirmed)
	assert.True(t, s.Apply(listOf(3, confirmed)))
	assert.Equal(t, []string{"T2", "T1"}, names(s.Items()))

	tr.AssertExpectations(t)
}

func TestMove_UpdatesPositionsSynchronously(t *testing.T) {
	initial := tasks("A", "B", "C")
	tr := new(mockTransport)
	tr.On("Reorder", mock.Anything, worldID, batch(initial, "B", "C", "A")).Return(int64(1), nil).Once()

	s := NewSynchronizer(worldID, tr)
	s.Apply(listOf(0, initial))

	require.NoError(t, s.Move(context.Background(), 0, 2))

	items := s.Items()
	assert.Equal(t, []string{"B", "C", "A"}, names(items))
	for i, task := range items {
		assert.Equal(t, i, task.Position)
	}

	wait(t, s)
	tr.AssertExpectations(t)
}

func TestMove_OutOfRange(t *testing.T) {
	tr := new(mockTransport)
	s := NewSynchronizer(worldID, tr)
	s.Apply(listOf(0, tasks("A", "B")))

	assert.ErrorIs(t, s.Move(context.Background(), 0, 2), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.Move(context.Background(), -1, 0), ErrIndexOutOfRange)
	assert.NoError(t, s.Move(context.Background(), 1, 1))

	assert.Equal(t, StateIdle, s.State())
	tr.AssertNotCalled(t, "Reorder", mock.Anything, mock.Anything, mock.Anything)
}

func TestMove_CoalescesWhileInFlight(t *testing.T) {
	ctx := context.Background()
	initial := tasks("A", "B", "C")
	release := make(chan struct{})

	tr := new(mockTransport)
	tr.On("Reorder", mock.Anything, worldID, batch(initial, "B", "A", "C")).
		Run(func(mock.Arguments) { <-release }).
		Return(int64(1), nil).Once()
	tr.On("Reorder", mock.Anything, worldID, batch(initial, "C", "B", "A")).
		Return(int64(2), nil).Once()

	s := NewSynchronizer(worldID, tr)
	s.Apply(listOf(0, initial))

	require.NoError(t, s.Move(ctx, 1, 0)) // B A C
	require.NoError(t, s.Move(ctx, 2, 0)) // C B A
	require.NoError(t, s.Move(ctx, 2, 1)) // C A B
	require.NoError(t, s.Move(ctx, 2, 1)) // C B A

	close(release)
	wait(t, s)

	assert.Equal(t, []string{"C", "B", "A"}, names(s.Items()))
	assert.Equal(t, StateIdle, s.State())
	tr.AssertNumberOfCalls(t, "Reorder", 2)
	tr.AssertExpectations(t)

	assert.False(t, s.Apply(listOf(1, initial)))
	assert.True(t, s.Apply(listOf(2, s.Items())))
}

func TestApply_CountChangeWinsOverLock(t *testing.T) {
	initial := tasks("A", "B")
	release := make(chan struct{})

	tr := new(mockTransport)
	tr.On("Reorder", mock.Anything, worldID, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(int64(0), errors.New("task list changed")).Once()

	s := NewSynchronizer(worldID, tr)
	s.Apply(listOf(1, initial))
	require.NoError(t, s.Move(context.Background(), 1, 0))

	grown := tasks("A", "B", "C")
	assert.True(t, s.Apply(listOf(2, grown)))
	assert.Equal(t, []string{"A", "B", "C"}, names(s.Items()))

	// The failed write belongs to the replaced list and is not reported.
	close(release)
	wait(t, s)
	assert.Equal(t, StateIdle, s.State())
	assert.NoError(t, s.Err())
}

func TestApply_OlderVersionNeverWins(t *testing.T) {
	tr := new(mockTransport)
	s := NewSynchronizer(worldID, tr)

	require.True(t, s.Apply(listOf(5, tasks("A", "B"))))
	assert.False(t, s.Apply(listOf(4, tasks("A", "B", "C"))))
	assert.True(t, s.Apply(listOf(6, tasks("A"))))
}

func TestWriteFailure_KeepsLocalOrder(t *testing.T) {
	ctx := context.Background()
	initial := tasks("A", "B")
	boom := errors.New("connection refused")

	tr := new(mockTransport)
	tr.On("Reorder", mock.Anything, worldID, batch(initial, "B", "A")).Return(int64(0), boom).Once()

	s := NewSynchronizer(worldID, tr)
	s.Apply(listOf(1, initial))
	require.NoError(t, s.Move(ctx, 1, 0))
	wait(t, s)

	assert.Equal(t, StateOutOfSync, s.State())
	assert.ErrorIs(t, s.Err(), boom)
	assert.Equal(t, []string{"B", "A"}, names(s.Items()))
	assert.True(t, s.Locked())

	// Same-size server lists do not undo the user's move while out of sync.
	assert.False(t, s.Apply(listOf(1, initial)))
	assert.Equal(t, []string{"B", "A"}, names(s.Items()))
	tr.AssertNumberOfCalls(t, "Reorder", 1)

	t.Run("retry", func(t *testing.T) {
		tr.On("Reorder", mock.Anything, worldID, batch(initial, "B", "A")).Return(int64(2), nil).Once()

		s.Retry(ctx)
		wait(t, s)

		assert.Equal(t, StateIdle, s.State())
		assert.NoError(t, s.Err())
		tr.AssertNumberOfCalls(t, "Reorder", 2)
	})
}

func TestDiscard(t *testing.T) {
	initial := tasks("A", "B")
	tr := new(mockTransport)
	tr.On("Reorder", mock.Anything, worldID, mock.Anything).Return(int64(0), errors.New("forbidden")).Once()

	s := NewSynchronizer(worldID, tr)
	s.Apply(listOf(1, initial))
	require.NoError(t, s.Move(context.Background(), 1, 0))
	wait(t, s)
	require.Equal(t, StateOutOfSync, s.State())

	s.Discard()
	assert.True(t, s.Apply(listOf(1, initial)))
	assert.Equal(t, []string{"A", "B"}, names(s.Items()))
	assert.Equal(t, StateIdle, s.State())
}

func TestGraceWindow_UnversionedAck(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	initial := tasks("A", "B")

	tr := new(mockTransport)
	tr.On("Reorder", mock.Anything, worldID, mock.Anything).Return(int64(0), nil).Once()

	s := NewSynchronizer(worldID, tr, WithClock(clock.Now), WithGraceWindow(2*time.Second))
	s.Apply(listOf(0, initial))
	require.NoError(t, s.Move(context.Background(), 1, 0))
	wait(t, s)

	assert.Equal(t, StateIdle, s.State())
	assert.True(t, s.Locked())
	assert.False(t, s.Apply(listOf(0, initial)))

	clock.Advance(1500 * time.Millisecond)
	assert.False(t, s.Apply(listOf(0, initial)))

	clock.Advance(time.Second)
	assert.False(t, s.Locked())
	assert.True(t, s.Apply(listOf(0, initial)))
	assert.Equal(t, []string{"A", "B"}, names(s.Items()))
}

func TestOnChange(t *testing.T) {
	initial := tasks("A", "B")
	tr := new(mockTransport)
	tr.On("Reorder", mock.Anything, worldID, mock.Anything).Return(int64(1), nil).Once()

	s := NewSynchronizer(worldID, tr)

	var mu sync.Mutex
	var states []State
	s.OnChange(func(snap Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, snap.State)
	})

	s.Apply(listOf(0, initial))
	require.NoError(t, s.Move(context.Background(), 1, 0))
	wait(t, s)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateIdle, StateSaving, StateIdle}, states)
}

func TestOnChange_DeliversInChangeOrder(t *testing.T) {
	ctx := context.Background()
	initial := tasks("A", "B", "C")

	tr := new(mockTransport)
	tr.On("Reorder", mock.Anything, worldID, batch(initial, "B", "A", "C")).Return(int64(1), nil).Once()
	tr.On("Reorder", mock.Anything, worldID, batch(initial, "C", "B", "A")).Return(int64(2), nil).Once()

	s := NewSynchronizer(worldID, tr)
	s.Apply(listOf(0, initial))

	blocked := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var mu sync.Mutex
	var seen []Snapshot
	s.OnChange(func(snap Snapshot) {
		mu.Lock()
		seen = append(seen, snap)
		mu.Unlock()
		// Hold the listener on the first ack so a newer move lands meanwhile.
		if snap.State == StateIdle {
			once.Do(func() {
				close(blocked)
				<-release
			})
		}
	})

	require.NoError(t, s.Move(ctx, 1, 0)) // B A C
	<-blocked
	require.NoError(t, s.Move(ctx, 2, 0)) // C B A, while the ack is being delivered
	close(release)
	wait(t, s)

	last := func() Snapshot {
		mu.Lock()
		defer mu.Unlock()
		return seen[len(seen)-1]
	}
	assert.Eventually(t, func() bool {
		snap := last()
		return snap.State == StateIdle && slices.Equal(names(snap.Items), []string{"C", "B", "A"})
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	newest := -1
	for i, snap := range seen {
		if slices.Equal(names(snap.Items), []string{"C", "B", "A"}) {
			newest = i
			break
		}
	}
	require.GreaterOrEqual(t, newest, 0)
	for _, snap := range seen[newest:] {
		assert.Equal(t, []string{"C", "B", "A"}, names(snap.Items), "older order delivered after a newer one")
	}
	assert.Equal(t, []string{"C", "B", "A"}, names(s.Items()))
	tr.AssertExpectations(t)
}

func TestOnChange_ListenerMayCallBack(t *testing.T) {
	s := NewSynchronizer(worldID, new(mockTransport))

	var calls int
	s.OnChange(func(Snapshot) {
		calls++
		_ = s.Items()
		if calls == 1 {
			s.Apply(listOf(2, tasks("A", "B", "C")))
		}
	})

	s.Apply(listOf(1, tasks("A", "B")))
	assert.Equal(t, 2, calls)
	assert.Len(t, s.Items(), 3)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "saving", StateSaving.String())
	assert.Equal(t, "out_of_sync", StateOutOfSync.String())
	assert.Equal(t, "State(9)", State(9).String())
}
