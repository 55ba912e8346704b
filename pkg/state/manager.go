package state

import (
	"io"
	"log/slog"
	"time"
)

// StateManager owns the global named registry, the top-level scopes, the
// buffered writes of managed states and the deferred callback queue.
//
// A StateManager is not safe for concurrent use.
type StateManager struct {
	logger    *slog.Logger
	observers []Observer
	budget    *CallbackBudget
	frozen    bool

	// pass counts completed update passes. The first pass is 1.
	pass uint64

	// stack holds the scopes that are currently computing, innermost last.
	stack []*scope

	// untracked > 0 suspends read tracking (factories, disposal callbacks).
	untracked int
	// factories counts named state factories that are executing.
	factories int
	// creating counts Attach create callbacks that are executing.
	creating int

	pending   []applier
	callbacks []func()
	named     map[string]*namedEntry
	roots     []*scope
	nextID    int
}

// Option configures a StateManager.
type Option func(*StateManager)

// WithLogger sets the logger used for debug records. By default nothing is
// logged.
func WithLogger(l *slog.Logger) Option {
	return func(m *StateManager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithObserver registers an observer for runtime events.
func WithObserver(o Observer) Option {
	return func(m *StateManager) {
		if o != nil {
			m.observers = append(m.observers, o)
		}
	}
}

// WithCallbackBudget limits the number of deferred callbacks run per frame.
func WithCallbackBudget(maxPerFrame int) Option {
	return func(m *StateManager) {
		m.budget = NewCallbackBudget(maxPerFrame)
	}
}

// WithFrozen sets the initial frozen flag.
func WithFrozen(frozen bool) Option {
	return func(m *StateManager) {
		m.frozen = frozen
	}
}

// NewStateManager creates an empty manager.
func NewStateManager(opts ...Option) *StateManager {
	m := &StateManager{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		named:  make(map[string]*namedEntry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Frozen reports whether the manager is driven by an explicit update loop.
// Managed writes are buffered until the next update pass either way.
func (m *StateManager) Frozen() bool { return m.frozen }

// SetFrozen sets the frozen flag.
func (m *StateManager) SetFrozen(frozen bool) { m.frozen = frozen }

// Pass returns the number of completed update passes.
func (m *StateManager) Pass() uint64 { return m.pass }

// PendingWrites returns the number of states with buffered writes.
func (m *StateManager) PendingWrites() int { return len(m.pending) }

// PendingCallbacks returns the number of queued deferred callbacks.
func (m *StateManager) PendingCallbacks() int { return len(m.callbacks) }

// BudgetStats returns the callback budget usage. It is zero when no budget
// is configured.
func (m *StateManager) BudgetStats() BudgetStats { return m.budget.Stats() }

// Logger returns the manager's logger.
func (m *StateManager) Logger() *slog.Logger { return m.logger }

// ScheduleCallback queues fn to run on the next frame. Callbacks scheduled
// while callbacks run are queued for the frame after.
func (m *StateManager) ScheduleCallback(fn func()) {
	if fn == nil {
		return
	}
	m.callbacks = append(m.callbacks, fn)
}

// CallCallbacks runs one generation of deferred callbacks.
// If a callback panics, the callbacks that did not run stay queued ahead of
// newly scheduled ones and the panic propagates.
func (m *StateManager) CallCallbacks() {
	if m.busy() {
		fail("S002", "CallCallbacks called inside a computation")
	}
	queue := m.callbacks
	m.callbacks = nil
	if len(queue) == 0 {
		return
	}

	n := m.budget.allow(len(queue))
	run, carried := queue[:n], queue[n:]
	if len(carried) > 0 {
		m.logger.Debug("callback budget exceeded", "ran", n, "deferred", len(carried))
	}

	next := 0
	defer func() {
		if next < len(run) || len(carried) > 0 {
			requeue := make([]func(), 0, len(run)-next+len(carried)+len(m.callbacks))
			requeue = append(requeue, run[next:]...)
			requeue = append(requeue, carried...)
			m.callbacks = append(requeue, m.callbacks...)
		}
		for _, o := range m.observers {
			o.CallbacksRun(next, len(carried))
		}
	}()
	for next < len(run) {
		fn := run[next]
		next++
		fn()
	}
}

// UpdateSnapshot applies all buffered writes and returns the number of
// states whose value changed. Dependents of changed states are marked
// stale; nothing is recomputed until it is read.
func (m *StateManager) UpdateSnapshot() int {
	if m.busy() {
		fail("S002", "UpdateSnapshot called inside a computation")
	}
	start := time.Now()
	m.pass++
	pending := m.pending
	m.pending = nil

	modified := 0
	for _, c := range pending {
		if c.apply(m.pass) {
			modified++
		}
	}

	report := PassReport{
		Pass:      m.pass,
		Writes:    len(pending),
		Modified:  modified,
		StartedAt: start,
		Duration:  time.Since(start),
	}
	m.logger.Debug("update pass",
		"pass", report.Pass,
		"writes", report.Writes,
		"modified", report.Modified,
		"duration", report.Duration,
	)
	for _, o := range m.observers {
		o.PassCompleted(report)
	}
	return modified
}

// RunUpdatePass runs one frame: deferred callbacks when advanceFrame is set,
// then an update pass. It returns the number of modified states.
func RunUpdatePass(advanceFrame bool, m *StateManager) int {
	m.frozen = true
	if advanceFrame {
		m.CallCallbacks()
	}
	return m.UpdateSnapshot()
}

// busy reports whether a computation or a named state factory is running.
func (m *StateManager) busy() bool {
	return len(m.stack) > 0 || m.factories > 0
}

// current returns the innermost computing scope, or nil.
func (m *StateManager) current() *scope {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

func (m *StateManager) push(s *scope) {
	m.stack = append(m.stack, s)
}

func (m *StateManager) pop(s *scope) {
	if top := m.current(); top != s {
		panic("state: scope stack out of order")
	}
	m.stack = m.stack[:len(m.stack)-1]
}

// track records a read of src by the innermost computing scope.
func (m *StateManager) track(src source, version uint64) {
	if m.untracked > 0 {
		return
	}
	if s := m.current(); s != nil && !s.disposed {
		s.addDep(src, version)
	}
}

// untrackedDo runs fn with read tracking suspended.
func (m *StateManager) untrackedDo(fn func()) {
	m.untracked++
	defer func() { m.untracked-- }()
	fn()
}

func (m *StateManager) enqueue(c applier) {
	m.pending = append(m.pending, c)
}

func (m *StateManager) addRoot(s *scope) {
	m.roots = append(m.roots, s)
}

func (m *StateManager) removeRoot(s *scope) {
	for i, r := range m.roots {
		if r == s {
			m.roots = append(m.roots[:i], m.roots[i+1:]...)
			return
		}
	}
}

func (m *StateManager) scopeRecomputed(kind ScopeKind, start time.Time, err error) {
	if len(m.observers) == 0 {
		return
	}
	elapsed := time.Since(start)
	for _, o := range m.observers {
		o.ScopeRecomputed(kind, elapsed, err)
	}
}

func (m *StateManager) scopeDisposed(kind ScopeKind) {
	for _, o := range m.observers {
		o.ScopeDisposed(kind)
	}
}
