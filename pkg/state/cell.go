package state

import "fmt"

// State is a readable reactive value. Reading Value inside a computation
// records a dependency.
type State[T any] interface {
	Value() T
	Modified() bool
}

// source is something a scope can depend on.
type source interface {
	subscribe(s *scope)
	unsubscribe(s *scope)
}

// applier is a state with a buffered write.
type applier interface {
	apply(pass uint64) bool
}

// ValueTracker hooks into the values assigned to a mutable state.
// OnCreate transforms the initial value. OnUpdate runs on every write,
// including writes of an equivalent value, and may transform the value or
// reject the write by returning an error. Hooks are skipped once the state
// is disposed.
type ValueTracker[T any] struct {
	OnCreate func(T) T
	OnUpdate func(T) (T, error)
}

// MutableOptions configures MutableWith.
type MutableOptions[T any] struct {
	// Local ties the state to the computing scope; it is disposed with it.
	Local bool
	// Equivalent reports whether two values are the same. A write of an
	// equivalent value is not reported as a modification.
	Equivalent func(a, b T) bool
	Tracker    *ValueTracker[T]
}

// cellBase is the untyped part of a cell.
type cellBase struct {
	manager    *StateManager
	id         int
	name       string
	owner      *scope
	dependents map[*scope]struct{}
	disposed   bool
}

func (c *cellBase) subscribe(s *scope) {
	if c.dependents == nil {
		c.dependents = make(map[*scope]struct{})
	}
	c.dependents[s] = struct{}{}
}

func (c *cellBase) unsubscribe(s *scope) {
	delete(c.dependents, s)
}

// invalidate marks every scope that read this cell as stale.
func (c *cellBase) invalidate() {
	for s := range c.dependents {
		s.markStale()
	}
}

func (c *cellBase) label() string {
	if c.name != "" {
		return fmt.Sprintf("%q", c.name)
	}
	return fmt.Sprintf("#%d", c.id)
}

// cell holds the snapshot and the buffered value of a state.
type cell[T any] struct {
	cellBase

	value     T
	pending   T
	queued    bool
	changedAt uint64
	unmanaged bool // last unmanaged write changed the value
	equal     func(a, b T) bool
	tracker   *ValueTracker[T]
}

func newCell[T any](m *StateManager, v T, eq func(a, b T) bool, tracker *ValueTracker[T]) *cell[T] {
	if eq == nil {
		eq = defaultEquals[T]
	}
	m.nextID++
	c := &cell[T]{
		cellBase: cellBase{manager: m, id: m.nextID},
		equal:    eq,
		tracker:  tracker,
	}
	if tracker != nil && tracker.OnCreate != nil {
		v = tracker.OnCreate(v)
	}
	c.value = v
	return c
}

// get returns the snapshot value and records the read.
func (c *cell[T]) get() T {
	if !c.disposed {
		c.manager.track(&c.cellBase, 0)
	}
	return c.value
}

// latest returns the buffered value if any, else the snapshot.
func (c *cell[T]) latest() T {
	if c.queued {
		return c.pending
	}
	return c.value
}

func (c *cell[T]) modified() bool {
	if c.disposed {
		return c.unmanaged
	}
	return c.changedAt != 0 && c.changedAt == c.manager.pass
}

func (c *cell[T]) write(v T) error {
	m := c.manager
	if c.disposed {
		old := c.value
		c.value = v
		c.unmanaged = !c.equal(old, v)
		return nil
	}
	if s := m.current(); s != nil {
		return newError("S005", "state %s written while a %s scope is computing", c.label(), s.kind)
	}
	if c.tracker != nil && c.tracker.OnUpdate != nil {
		nv, err := c.tracker.OnUpdate(v)
		if err != nil {
			return newError("S004", "state %s", c.label()).Wrap(err)
		}
		v = nv
	}
	c.pending = v
	if !c.queued {
		c.queued = true
		m.enqueue(c)
	}
	return nil
}

// apply moves the buffered value into the snapshot. An equivalent value is
// stored but not reported.
func (c *cell[T]) apply(pass uint64) bool {
	if !c.queued || c.disposed {
		return false
	}
	old, v := c.value, c.pending
	var zero T
	c.pending = zero
	c.queued = false
	c.value = v
	if c.equal(old, v) {
		return false
	}
	c.changedAt = pass
	c.invalidate()
	return true
}

// dispose makes the cell unmanaged. A buffered write is applied at once.
func (c *cell[T]) dispose() {
	if c.disposed {
		return
	}
	if c.queued {
		old := c.value
		c.value = c.pending
		c.unmanaged = !c.equal(old, c.value)
		var zero T
		c.pending = zero
		c.queued = false
	}
	c.disposed = true
	for s := range c.dependents {
		s.markStale()
	}
	c.dependents = nil
}

// checkDisposal panics when a user disposal is not allowed right now.
func (c *cellBase) checkDisposal() {
	m := c.manager
	if s := m.current(); s != nil {
		fail("S001", "state %s disposed while a %s scope is computing", c.label(), s.kind)
	}
	if m.factories > 0 {
		fail("S001", "state %s disposed inside a named state factory", c.label())
	}
}

// MutableState is a settable state. Writes to a managed state are buffered
// and become visible with the next update pass.
type MutableState[T any] struct {
	c *cell[T]
}

// Mutable creates a global mutable state.
func Mutable[T any](m *StateManager, v T) *MutableState[T] {
	return MutableWith(m, v, MutableOptions[T]{})
}

// MutableWith creates a mutable state with options. Local states require a
// running computation and are disposed with its scope, or when the scope
// runs again without recreating them.
func MutableWith[T any](m *StateManager, v T, opts MutableOptions[T]) *MutableState[T] {
	if m.factories > 0 {
		fail("S002", "mutable state created inside a named state factory")
	}
	var owner *scope
	if opts.Local {
		owner = m.current()
		if owner == nil {
			fail("S003", "local mutable state created outside a computation")
		}
	}
	return newMutable(m, v, opts, owner)
}

func newMutable[T any](m *StateManager, v T, opts MutableOptions[T], owner *scope) *MutableState[T] {
	st := &MutableState[T]{c: newCell(m, v, opts.Equivalent, opts.Tracker)}
	if owner != nil {
		st.c.owner = owner
		owner.own(st)
	}
	return st
}

// Value returns the snapshot value and records a dependency.
func (s *MutableState[T]) Value() T { return s.c.get() }

// Peek returns the snapshot value without recording a dependency.
func (s *MutableState[T]) Peek() T { return s.c.value }

// Modified reports whether the last update pass changed the value.
func (s *MutableState[T]) Modified() bool { return s.c.modified() }

// Set writes v. It panics with ErrIllegalWrite inside a computation and with
// ErrRejectedWrite when the value tracker refuses v.
func (s *MutableState[T]) Set(v T) {
	if err := s.c.write(v); err != nil {
		panic(err)
	}
}

// TrySet writes v and returns the error Set would panic with.
func (s *MutableState[T]) TrySet(v T) error {
	return s.c.write(v)
}

// Update writes fn applied to the latest value, buffered or not.
func (s *MutableState[T]) Update(fn func(T) T) {
	s.Set(fn(s.c.latest()))
}

// Name returns the registry name, empty for unnamed states.
func (s *MutableState[T]) Name() string { return s.c.name }

// Disposed reports whether Dispose was called or the owning scope is gone.
func (s *MutableState[T]) Disposed() bool { return s.c.disposed }

// Dispose detaches the state from the manager. Afterwards writes apply
// immediately. Disposing while a computation or a named state factory runs
// panics with ErrIllegalDisposal.
func (s *MutableState[T]) Dispose() {
	if s.c.disposed {
		return
	}
	s.c.checkDisposal()
	s.dispose()
}

func (s *MutableState[T]) dispose() {
	s.c.manager.forgetNamed(&s.c.cellBase, s)
	s.c.dispose()
}

func (s *MutableState[T]) peekAny() any { return s.c.value }
