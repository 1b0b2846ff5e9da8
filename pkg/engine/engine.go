package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/robocell/fsm/pkg/breaker"
	"github.com/robocell/fsm/pkg/eventqueue"
	"github.com/robocell/fsm/pkg/fsm"
)

// EventReset is the explicit reset event. It is the only event accepted in
// the FAULT sub-state; it returns the machine to the initial state and
// clears the context.
const EventReset = "RESET"

// Status is the engine's own lifecycle state.
type Status int32

const (
	StatusCreated Status = iota
	StatusRunning
	StatusStopping
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusRunning:
		return "running"
	case StatusStopping:
		return "stopping"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Engine executes one machine instance: it owns the current state, the
// context, the event queue and the error controller. Producers submit
// events concurrently; a single dispatch goroutine advances state, so no
// instance ever processes two events at once.
type Engine struct {
	table    *fsm.Table
	fctx     *fsm.Context
	cfg      Config
	queue    *eventqueue.Queue
	ctrl     *controller
	logger   *slog.Logger
	metrics  MetricsRecorder
	notifier Notifier
	pool     *Pool

	stateMu   sync.RWMutex
	current   string
	epoch     uint64
	timer     *time.Timer
	startedAt time.Time

	// pauseMu guards resumeCh; a non-nil resumeCh means dispatch is
	// suspended until the channel is closed by Resume.
	pauseMu  sync.Mutex
	resumeCh chan struct{}

	status atomic.Int32
	fault  atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}

	histMu  sync.Mutex
	history []TransitionRecord

	processed      atomic.Uint64
	committed      atomic.Uint64
	noops          atomic.Uint64
	guardRejected  atomic.Uint64
	staleDropped   atomic.Uint64
	drainDiscarded atomic.Uint64
}

// New creates an engine for the given immutable state table.
func New(table *fsm.Table, opts ...Option) (*Engine, error) {
	if table == nil {
		return nil, ErrNilTable
	}

	e := &Engine{
		table:    table,
		fctx:     fsm.NewContext(),
		cfg:      DefaultConfig(),
		logger:   slog.Default(),
		metrics:  noopMetrics{},
		notifier: noopNotifier{},
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.queue = eventqueue.New(e.cfg.MaxQueueDepth)
	e.ctrl = newController(e.cfg, e.logger, e.metrics, e.notifier)
	return e, nil
}

// MustNew creates an engine and panics on configuration errors.
func MustNew(table *fsm.Table, opts ...Option) *Engine {
	e, err := New(table, opts...)
	if err != nil {
		panic(fmt.Sprintf("engine: failed to create engine: %v", err))
	}
	return e
}

// Start enters the initial state, runs its entry validation and launches
// the dispatch loop. It fails without side effects when the initial
// validation rejects the current context.
func (e *Engine) Start(ctx context.Context) error {
	if !e.status.CompareAndSwap(int32(StatusCreated), int32(StatusRunning)) {
		return ErrAlreadyStarted
	}

	initial, _ := e.table.State(e.table.Initial())
	if res := initial.ValidateEntry(e.fctx, e.cfg.FailFastValidation); !res.OK() {
		e.status.Store(int32(StatusCreated))
		e.ctrl.report(ErrorRecord{
			Code:       CodePreconditionFailed,
			State:      initial.Name(),
			Snapshot:   e.fctx.Snapshot(),
			Message:    res.String(),
			Validation: &res,
		})
		return fmt.Errorf("%w: %s", ErrInitialValidation, res.String())
	}

	e.stateMu.Lock()
	e.current = initial.Name()
	e.epoch = 1
	e.armTimerLocked(initial, e.epoch)
	e.startedAt = time.Now()
	e.stateMu.Unlock()

	loopCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	go e.loop(loopCtx)

	e.logger.Info("engine started",
		slog.String("initial_state", initial.Name()),
		slog.Int("max_queue_depth", e.cfg.MaxQueueDepth))
	return nil
}

// Stop requests graceful shutdown: no further intake, in-flight and queued
// events drained for up to the shutdown grace, the remainder discarded and
// counted. Idempotent once stopping has begun.
func (e *Engine) Stop() error {
	if !e.status.CompareAndSwap(int32(StatusRunning), int32(StatusStopping)) {
		switch Status(e.status.Load()) {
		case StatusCreated:
			return ErrNotStarted
		default:
			return nil
		}
	}

	e.logger.Info("engine stopping, draining queued events")

	// A paused engine cannot drain; lift the gate before closing intake.
	e.Resume()
	e.queue.Close()

	select {
	case <-e.done:
	case <-time.After(e.cfg.ShutdownGrace):
		e.cancel()
		<-e.done
	}

	e.stateMu.Lock()
	e.cancelTimerLocked()
	e.stateMu.Unlock()

	if n := e.queue.Drain(); n > 0 {
		e.drainDiscarded.Add(uint64(n))
		e.logger.Warn("discarded queued events on shutdown", slog.Int("count", n))
	}

	e.status.Store(int32(StatusStopped))
	e.logger.Info("engine stopped")
	return nil
}

// Run starts the engine and returns a function suitable for errgroup:
// leaving the scope by any path guarantees exactly one Stop call.
func (e *Engine) Run(ctx context.Context) func() error {
	return func() error {
		if err := e.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return e.Stop()
	}
}

// Send submits an event asynchronously: it enqueues and returns. The only
// synchronous failures are backpressure and shutdown; everything else is
// observable through callbacks and ErrorStats.
func (e *Engine) Send(evt fsm.Event) error {
	if evt.Name == "" {
		return fsm.ErrEmptyEventName
	}

	switch Status(e.status.Load()) {
	case StatusStopping, StatusStopped:
		e.ctrl.report(ErrorRecord{
			Code:    CodeEngineStopped,
			State:   e.CurrentState(),
			Event:   evt.Name,
			Message: "event submitted after stop",
		})
		return ErrEngineStopped
	}

	if err := e.queue.Push(evt); err != nil {
		code := CodeQueueFull
		if err == eventqueue.ErrQueueClosed {
			code = CodeEngineStopped
			err = ErrEngineStopped
		}
		e.ctrl.report(ErrorRecord{
			Code:    code,
			State:   e.CurrentState(),
			Event:   evt.Name,
			Message: "event dropped on submission",
		})
		return err
	}
	return nil
}

// SendEvent is shorthand for Send(fsm.NewEvent(name, opts...)).
func (e *Engine) SendEvent(name string, opts ...fsm.EventOption) error {
	return e.Send(fsm.NewEvent(name, opts...))
}

// Reset submits the explicit reset event at maximum priority. It is the
// only way out of the FAULT sub-state.
func (e *Engine) Reset() error {
	return e.Send(fsm.NewEvent(EventReset, fsm.WithPriority(fsm.PriorityMax)))
}

// Pause suspends event dispatch. Submissions keep queueing and timers keep
// firing into the queue; nothing is processed until Resume. Idempotent.
func (e *Engine) Pause() {
	e.pauseMu.Lock()
	defer e.pauseMu.Unlock()
	if e.resumeCh == nil {
		e.resumeCh = make(chan struct{})
		e.logger.Info("engine paused")
	}
}

// Resume continues dispatch after Pause. Idempotent.
func (e *Engine) Resume() {
	e.pauseMu.Lock()
	defer e.pauseMu.Unlock()
	if e.resumeCh != nil {
		close(e.resumeCh)
		e.resumeCh = nil
		e.logger.Info("engine resumed")
	}
}

// Paused reports whether dispatch is suspended.
func (e *Engine) Paused() bool {
	e.pauseMu.Lock()
	defer e.pauseMu.Unlock()
	return e.resumeCh != nil
}

// pauseGate blocks while the engine is paused, returning early when the
// loop context is cancelled.
func (e *Engine) pauseGate(ctx context.Context) {
	for {
		e.pauseMu.Lock()
		ch := e.resumeCh
		e.pauseMu.Unlock()
		if ch == nil {
			return
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return
		}
	}
}

// CurrentState returns an atomic snapshot of the current state name. Any
// state visible here has passed both its exit validation (on leaving) and
// entry validation (on arrival).
func (e *Engine) CurrentState() string {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.current
}

// Status returns the engine lifecycle status.
func (e *Engine) Status() Status {
	return Status(e.status.Load())
}

// Fault reports whether the machine is in the FAULT sub-state.
func (e *Engine) Fault() bool { return e.fault.Load() }

// Context returns the machine context.
func (e *Engine) Context() *fsm.Context { return e.fctx }

// AddErrorCallback registers a callback invoked synchronously for every
// captured error record. Returns a token for removal.
func (e *Engine) AddErrorCallback(cb ErrorCallback) uuid.UUID {
	return e.ctrl.addCallback(cb)
}

// RemoveErrorCallback removes a previously registered callback.
func (e *Engine) RemoveErrorCallback(id uuid.UUID) bool {
	return e.ctrl.removeCallback(id)
}

// HasFatalErrors reports whether any active error is fatal.
func (e *Engine) HasFatalErrors() bool { return e.ctrl.hasFatal() }

// ErrorStats returns counters over the retained error history.
func (e *Engine) ErrorStats() ErrorStats { return e.ctrl.stats() }

// ActiveErrors returns the currently active error records, oldest first.
func (e *Engine) ActiveErrors() []ErrorRecord { return e.ctrl.activeErrors() }

// ErrorHistory returns up to limit retained error records, newest last.
// A non-positive limit returns the full retained history.
func (e *Engine) ErrorHistory(limit int) []ErrorRecord { return e.ctrl.errorHistory(limit) }

// ClearError clears an active error by code.
func (e *Engine) ClearError(code Code) bool { return e.ctrl.clearError(code) }

// Breakers returns per-code circuit breaker stats.
func (e *Engine) Breakers() map[string]breaker.Stats { return e.ctrl.breakerSnapshot() }

// History returns up to limit committed transitions, newest last. A
// non-positive limit returns the full retained history.
func (e *Engine) History(limit int) []TransitionRecord {
	e.histMu.Lock()
	defer e.histMu.Unlock()

	n := len(e.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]TransitionRecord, n)
	copy(out, e.history[len(e.history)-n:])
	return out
}

// Stats returns a snapshot of engine counters.
func (e *Engine) Stats() Stats {
	e.stateMu.RLock()
	current := e.current
	startedAt := e.startedAt
	e.stateMu.RUnlock()

	qs := e.queue.Stats()
	s := Stats{
		Status:          e.Status().String(),
		CurrentState:    current,
		Fault:           e.fault.Load(),
		Paused:          e.Paused(),
		EventsProcessed: e.processed.Load(),
		Committed:       e.committed.Load(),
		NoOps:           e.noops.Load(),
		GuardRejected:   e.guardRejected.Load(),
		StaleDropped:    e.staleDropped.Load(),
		DrainDiscarded:  e.drainDiscarded.Load(),
		QueueDepth:      qs.Depth,
		QueueDropped:    qs.Dropped,
	}
	if !startedAt.IsZero() {
		s.Uptime = time.Since(startedAt)
	}
	return s
}

// loop is the single serialized consumer: it pops events in (priority desc,
// sequence asc) order and drives the transition unit. After Stop closes the
// queue the loop keeps draining already-queued events until the queue is
// empty or the shutdown grace cancels the context.
func (e *Engine) loop(ctx context.Context) {
	defer close(e.done)

	for {
		e.pauseGate(ctx)
		evt, err := e.queue.Wait(ctx)
		if err != nil {
			return
		}
		e.dispatch(evt)
	}
}

// dispatch processes one event as a non-interleavable unit. A panic that
// escapes the guarded steps is unrecoverable: it forces FAULT.
func (e *Engine) dispatch(evt fsm.Event) {
	if e.pool != nil {
		e.pool.acquire()
		defer e.pool.release()
	}

	e.processed.Add(1)
	start := time.Now()

	defer func() {
		if v := recover(); v != nil {
			e.ctrl.report(ErrorRecord{
				Code:     CodeFatalInternal,
				State:    e.CurrentState(),
				Event:    evt.Name,
				Snapshot: e.fctx.Snapshot(),
				Message:  fmt.Sprintf("dispatch panicked: %v", v),
			})
			e.enterFault(evt.Name)
		}
	}()

	// A stale timer event belongs to a state generation already left.
	if evt.Epoch != 0 && evt.Epoch != e.currentEpoch() {
		e.staleDropped.Add(1)
		e.logger.Debug("dropped stale epoch-scoped event",
			slog.String("event", evt.Name),
			slog.Uint64("epoch", evt.Epoch))
		return
	}

	if evt.Name == EventReset {
		e.handleReset(evt)
		return
	}

	if e.fault.Load() {
		e.logger.Warn("event dropped in FAULT state", slog.String("event", evt.Name))
		return
	}

	e.execute(evt, start)
}

// execute runs guard check, exit validation, resolution, entry validation
// and commit, in that order. Any failing step produces exactly one error
// record and leaves the machine in its prior state. Half-open breaker
// trials admitted for this event are settled on every path: a commit or a
// same-code failure records the outcome, anything else releases the trial.
func (e *Engine) execute(evt fsm.Event, start time.Time) {
	defer e.ctrl.releaseTrials()

	current := e.CurrentState()
	state, ok := e.table.State(current)
	if !ok {
		// Unreachable with a validated table.
		panic(fmt.Sprintf("engine: current state %q not in table", current))
	}

	// The state's own mapping wins; a table-wide global transition covers
	// events the state does not map itself.
	globalTarget, isGlobal := "", false
	if !state.HasMapping(evt.Name) {
		if target, ok := e.table.GlobalTarget(evt.Name); ok {
			globalTarget, isGlobal = target, true
		} else {
			e.noops.Add(1)
			if e.cfg.RecordUnknownEvents {
				e.ctrl.report(ErrorRecord{
					Code:     CodeUnknownEvent,
					State:    current,
					Event:    evt.Name,
					Snapshot: e.fctx.Snapshot(),
					Message:  "no transition mapping for event",
				})
				return
			}
			e.logger.Debug("unknown event ignored",
				slog.String("state", current),
				slog.String("event", evt.Name))
			return
		}
	}

	if !isGlobal {
		allowed, gerr := state.GuardAllows(evt.Name, e.fctx)
		if gerr != nil {
			e.ctrl.report(ErrorRecord{
				Code:     CodeTransitionEvaluationError,
				State:    current,
				Event:    evt.Name,
				Snapshot: e.fctx.Snapshot(),
				Message:  gerr.Error(),
			})
			return
		}
		if !allowed {
			// Informational no-op, not an error.
			e.guardRejected.Add(1)
			e.logger.Debug("event rejected by guard",
				slog.String("state", current),
				slog.String("event", evt.Name))
			return
		}
	}

	if code, denied := e.ctrl.deny(); denied {
		e.ctrl.report(ErrorRecord{
			Code:    CodeCircuitOpen,
			State:   current,
			Event:   evt.Name,
			Message: fmt.Sprintf("circuit open for %s", code),
		})
		return
	}

	if res := state.ValidateExit(e.fctx, e.cfg.FailFastValidation); !res.OK() {
		e.ctrl.report(ErrorRecord{
			Code:       CodePostconditionFailed,
			State:      current,
			Event:      evt.Name,
			Snapshot:   e.fctx.Snapshot(),
			Message:    res.String(),
			Validation: &res,
		})
		return
	}

	target := globalTarget
	if !isGlobal {
		var resolved bool
		var rerr error
		target, resolved, rerr = state.Resolve(evt.Name, e.fctx)
		if rerr != nil {
			e.ctrl.report(ErrorRecord{
				Code:     CodeTransitionEvaluationError,
				State:    current,
				Event:    evt.Name,
				Snapshot: e.fctx.Snapshot(),
				Message:  rerr.Error(),
			})
			return
		}
		if !resolved {
			e.noops.Add(1)
			e.logger.Debug("event consumed without transition",
				slog.String("state", current),
				slog.String("event", evt.Name))
			return
		}
	}

	next, ok := e.table.State(target)
	if !ok {
		panic(fmt.Sprintf("engine: resolved target %q not in table", target))
	}

	if res := next.ValidateEntry(e.fctx, e.cfg.FailFastValidation); !res.OK() {
		e.ctrl.report(ErrorRecord{
			Code:       CodePreconditionFailed,
			State:      current,
			Event:      evt.Name,
			Snapshot:   e.fctx.Snapshot(),
			Message:    fmt.Sprintf("entry into %q blocked: %s", target, res.String()),
			Validation: &res,
		})
		return
	}

	e.commit(current, next, evt, start)
}

// commit makes the transition externally visible: bump the epoch, swap the
// state, re-arm the entry timer, then record and publish.
func (e *Engine) commit(from string, next *fsm.State, evt fsm.Event, start time.Time) {
	e.stateMu.Lock()
	e.epoch++
	epoch := e.epoch
	e.cancelTimerLocked()
	e.current = next.Name()
	e.armTimerLocked(next, epoch)
	e.stateMu.Unlock()

	e.committed.Add(1)
	e.ctrl.recordSuccess()

	duration := time.Since(start)
	e.recordTransition(TransitionRecord{
		From:     from,
		To:       next.Name(),
		Event:    evt.Name,
		Time:     time.Now(),
		Duration: duration,
	})

	safeRecordTransition(e.metrics, from, next.Name(), duration)
	safePublishTransition(e.notifier, Transition{
		From:  from,
		To:    next.Name(),
		Event: evt.Name,
		Time:  time.Now(),
	})

	e.logger.Info("transition committed",
		slog.String("from", from),
		slog.String("to", next.Name()),
		slog.String("event", evt.Name))
}

// handleReset returns the machine to the initial state, clearing the FAULT
// sub-state and the context. The initial entry validation still applies: a
// rejecting context keeps the machine where it is.
func (e *Engine) handleReset(evt fsm.Event) {
	from := e.CurrentState()
	initial, _ := e.table.State(e.table.Initial())

	e.fctx.Clear()

	if res := initial.ValidateEntry(e.fctx, e.cfg.FailFastValidation); !res.OK() {
		e.ctrl.report(ErrorRecord{
			Code:       CodePreconditionFailed,
			State:      from,
			Event:      evt.Name,
			Message:    fmt.Sprintf("reset into %q blocked: %s", initial.Name(), res.String()),
			Validation: &res,
		})
		return
	}

	e.stateMu.Lock()
	e.epoch++
	epoch := e.epoch
	e.cancelTimerLocked()
	e.current = initial.Name()
	e.armTimerLocked(initial, epoch)
	e.stateMu.Unlock()

	e.fault.Store(false)
	e.ctrl.clearError(CodeFatalInternal)
	e.ctrl.resetBreakers()

	e.recordTransition(TransitionRecord{
		From:  from,
		To:    initial.Name(),
		Event: evt.Name,
		Time:  time.Now(),
	})

	e.logger.Info("engine reset",
		slog.String("from", from),
		slog.String("to", initial.Name()))
}

func (e *Engine) enterFault(event string) {
	e.fault.Store(true)
	e.logger.Error("engine entered FAULT state, awaiting explicit reset",
		slog.String("event", event))
}

func (e *Engine) recordTransition(rec TransitionRecord) {
	e.histMu.Lock()
	defer e.histMu.Unlock()
	e.history = append(e.history, rec)
	if len(e.history) > e.cfg.HistorySize {
		e.history = e.history[len(e.history)-e.cfg.HistorySize:]
	}
}

func (e *Engine) currentEpoch() uint64 {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.epoch
}

// armTimerLocked starts the entry timeout for the state, tagging the
// synthetic event with the state generation so a late firing against a
// different generation is a no-op. Caller holds stateMu.
func (e *Engine) armTimerLocked(state *fsm.State, epoch uint64) {
	timeout := state.Timeout()
	if timeout <= 0 {
		return
	}

	name := state.TimeoutEvent()
	e.timer = time.AfterFunc(timeout, func() {
		evt := fsm.NewEvent(name,
			fsm.WithPriority(fsm.PriorityMax),
			fsm.WithEpoch(epoch))
		if err := e.queue.Push(evt); err != nil {
			e.logger.Debug("timeout event not enqueued",
				slog.String("event", name),
				slog.String("error", err.Error()))
		}
	})
}

// cancelTimerLocked stops a pending entry timer. Caller holds stateMu.
func (e *Engine) cancelTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}
