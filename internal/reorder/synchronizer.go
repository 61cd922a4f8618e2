// Package reorder keeps a client's optimistic task order in step with the
// server. Moves apply locally at once and are persisted in the background
// as full dense position batches; server lists that arrive while a write
// is outstanding do not overwrite the local order.
package reorder

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worldboard/server/internal/model"
)

// DefaultGraceWindow is how long server lists are held off after an
// acknowledged write that carried no version.
const DefaultGraceWindow = 2 * time.Second

// ErrIndexOutOfRange is returned by Move for an index outside the list.
var ErrIndexOutOfRange = errors.New("reorder: index out of range")

// Transport persists a full reorder batch and returns the task list
// version it produced, or 0 if the server does not report one.
type Transport interface {
	Reorder(ctx context.Context, worldID uuid.UUID, updates []model.PositionUpdate) (int64, error)
}

// State is the synchronizer's sync state.
type State int

const (
	// StateIdle means the local order matches the last acknowledged write.
	StateIdle State = iota
	// StateSaving means a write is in flight or queued.
	StateSaving
	// StateOutOfSync means the last write failed and the local order has
	// not been persisted.
	StateOutOfSync
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSaving:
		return "saving"
	case StateOutOfSync:
		return "out_of_sync"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Snapshot is the view passed to change listeners.
type Snapshot struct {
	Items []model.Task
	State State
	Err   error
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithGraceWindow sets the hold-off applied after unversioned acks.
func WithGraceWindow(d time.Duration) Option {
	return func(s *Synchronizer) {
		s.grace = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = logger
	}
}

// Synchronizer holds one world's local task order.
type Synchronizer struct {
	worldID   uuid.UUID
	transport Transport
	grace     time.Duration
	now       func() time.Time
	logger    *zap.Logger

	mu    sync.Mutex
	items []model.Task
	state State
	err   error

	inFlight bool
	dirty    bool
	writeCtx context.Context
	idle     chan struct{}

	// generation changes whenever the local list is replaced from the
	// server; results of writes from an older generation are ignored.
	generation uint64

	minVersion int64
	graceUntil time.Time
	discard    bool

	listeners []func(Snapshot)
	// pending holds snapshots in the order their changes were made.
	// At most one goroutine drains it at a time.
	pending     []Snapshot
	dispatching bool
}

// NewSynchronizer creates a synchronizer for a world's task list.
func NewSynchronizer(worldID uuid.UUID, transport Transport, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		worldID:   worldID,
		transport: transport,
		grace:     DefaultGraceWindow,
		now:       time.Now,
		logger:    zap.NewNop(),
		idle:      closedChan(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers fn to be called after every change to the local
// order or sync state. Snapshots are delivered one at a time, in the order
// the changes happened. fn may call back into the Synchronizer.
func (s *Synchronizer) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Items returns a copy of the local order.
func (s *Synchronizer) Items() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// State returns the current sync state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error of the last failed write, if the list is out of sync.
func (s *Synchronizer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Locked reports whether incoming server lists with an unchanged item
// count are currently held off.
func (s *Synchronizer) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heldLocked()
}

// Apply offers a server-confirmed list. It reports whether the list
// replaced the local order.
func (s *Synchronizer) Apply(list model.TaskList) bool {
	s.mu.Lock()
	if !s.acceptsLocked(list) {
		s.mu.Unlock()
		s.logger.Debug("server list held off",
			zap.String("world_id", s.worldID.String()),
			zap.Int64("version", list.Version),
			zap.Int("count", len(list.Tasks)),
		)
		return false
	}

	items := slices.Clone(list.Tasks)
	slices.SortStableFunc(items, func(a, b model.Task) int {
		return a.Position - b.Position
	})
	s.items = items
	s.generation++
	s.discard = false
	s.dirty = false
	if list.Version > s.minVersion {
		s.minVersion = list.Version
	}
	if !s.inFlight {
		s.state = StateIdle
		s.err = nil
	}
	deliver := s.publishLocked()
	s.mu.Unlock()

	if deliver {
		s.dispatch()
	}
	return true
}

// Move moves the task at from to index to, updates the local order
// immediately and persists the new order in the background. Moves made
// while a write is in flight are coalesced into one follow-up write.
func (s *Synchronizer) Move(ctx context.Context, from, to int) error {
	s.mu.Lock()
	if from < 0 || from >= len(s.items) || to < 0 || to >= len(s.items) {
		s.mu.Unlock()
		return ErrIndexOutOfRange
	}
	if from == to {
		s.mu.Unlock()
		return nil
	}

	s.items = ArrayMove(s.items, from, to)
	s.discard = false
	start := s.scheduleLocked(ctx)
	deliver := s.publishLocked()
	s.mu.Unlock()

	if deliver {
		s.dispatch()
	}
	if start != nil {
		go s.run(start)
	}
	return nil
}

// Retry re-sends the current local order.
func (s *Synchronizer) Retry(ctx context.Context) {
	s.mu.Lock()
	s.discard = false
	start := s.scheduleLocked(ctx)
	deliver := s.publishLocked()
	s.mu.Unlock()

	if deliver {
		s.dispatch()
	}
	if start != nil {
		go s.run(start)
	}
}

// Discard gives up on the unsaved local order. The next Apply replaces it
// unconditionally.
func (s *Synchronizer) Discard() {
	s.mu.Lock()
	s.discard = true
	s.dirty = false
	s.mu.Unlock()
}

// Wait blocks until no write is in flight or ctx is done.
func (s *Synchronizer) Wait(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ========== Internals ==========

type write struct {
	ctx        context.Context
	generation uint64
	batch      []model.PositionUpdate
	// idle is closed once the last write of a run has been reported.
	idle chan struct{}
}

// scheduleLocked renumbers the local order densely and queues a write of
// it. It returns the write to start, or nil if one is already in flight.
func (s *Synchronizer) scheduleLocked(ctx context.Context) *write {
	batch := model.DensePositions(s.items)
	s.state = StateSaving
	s.err = nil
	s.writeCtx = ctx
	if s.inFlight {
		s.dirty = true
		return nil
	}
	s.inFlight = true
	s.idle = make(chan struct{})
	return s.writeLocked(batch)
}

func (s *Synchronizer) writeLocked(batch []model.PositionUpdate) *write {
	return &write{
		ctx:        s.writeCtx,
		generation: s.generation,
		batch:      batch,
		idle:       s.idle,
	}
}

func (s *Synchronizer) run(w *write) {
	for {
		version, err := s.transport.Reorder(w.ctx, s.worldID, w.batch)

		s.mu.Lock()
		next := s.finishLocked(w, version, err)
		deliver := s.publishLocked()
		s.mu.Unlock()

		if deliver {
			s.dispatch()
		}
		if next == nil {
			close(w.idle)
			return
		}
		w = next
	}
}

// finishLocked records the outcome of w and returns the coalesced
// follow-up write, if any.
func (s *Synchronizer) finishLocked(w *write, version int64, err error) *write {
	stale := w.generation != s.generation

	switch {
	case err != nil && stale:
		s.logger.Info("reorder write failed after list was replaced",
			zap.String("world_id", s.worldID.String()),
			zap.Error(err),
		)
	case err != nil:
		s.logger.Warn("reorder write failed",
			zap.String("world_id", s.worldID.String()),
			zap.Int("count", len(w.batch)),
			zap.Error(err),
		)
		s.dirty = false
		s.inFlight = false
		s.state = StateOutOfSync
		s.err = err
		return nil
	case version > 0:
		if version > s.minVersion {
			s.minVersion = version
		}
	default:
		s.graceUntil = s.now().Add(s.grace)
	}

	if s.dirty {
		s.dirty = false
		return s.writeLocked(model.DensePositions(s.items))
	}

	s.inFlight = false
	if s.state == StateSaving {
		s.state = StateIdle
	}
	return nil
}

func (s *Synchronizer) heldLocked() bool {
	return s.inFlight || s.dirty || s.state == StateOutOfSync || s.now().Before(s.graceUntil)
}

func (s *Synchronizer) acceptsLocked(list model.TaskList) bool {
	if s.discard {
		return true
	}
	// Versions, when reported, are authoritative: an older list never wins.
	if list.Version > 0 && list.Version < s.minVersion {
		return false
	}
	// A task was added or removed elsewhere.
	if len(list.Tasks) != len(s.items) {
		return true
	}
	return !s.heldLocked()
}

func (s *Synchronizer) snapshotLocked() Snapshot {
	return Snapshot{
		Items: slices.Clone(s.items),
		State: s.state,
		Err:   s.err,
	}
}

// publishLocked queues a snapshot of the current view. It reports whether
// the caller must drain the queue; otherwise another goroutine already is.
func (s *Synchronizer) publishLocked() bool {
	s.pending = append(s.pending, s.snapshotLocked())
	if s.dispatching {
		return false
	}
	s.dispatching = true
	return true
}

// dispatch delivers queued snapshots until the queue is empty. Listeners
// run without mu held.
func (s *Synchronizer) dispatch() {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.dispatching = false
			s.mu.Unlock()
			return
		}
		snap := s.pending[0]
		s.pending[0] = Snapshot{}
		s.pending = s.pending[1:]
		listeners := slices.Clone(s.listeners)
		s.mu.Unlock()

		for _, fn := range listeners {
			fn(snap)
		}
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
