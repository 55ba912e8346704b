package state

// namedEntry is a registry slot. state is the typed state object.
type namedEntry struct {
	state any
}

// inspectable is implemented by every state kept in a registry.
type inspectable interface {
	peekAny() any
	Modified() bool
}

// Named returns the global state registered under name, creating it with
// factory on first use. The factory runs at most once per name; it must not
// create or dispose other states.
func Named[T any](m *StateManager, name string, factory func() T) *MutableState[T] {
	return named(m, name, factory, false)
}

// NamedLocal is like Named but registers the state in the computing scope.
// Local and global states of the same name are distinct.
func NamedLocal[T any](m *StateManager, name string, factory func() T) *MutableState[T] {
	return named(m, name, factory, true)
}

func named[T any](m *StateManager, name string, factory func() T, local bool) *MutableState[T] {
	if m.factories > 0 {
		fail("S002", "named state %q created inside a named state factory", name)
	}
	registry := m.named
	var owner *scope
	if local {
		owner = m.current()
		if owner == nil {
			fail("S003", "local named state %q created outside a computation", name)
		}
		if owner.named == nil {
			owner.named = make(map[string]*namedEntry)
		}
		registry = owner.named
	}

	if e, ok := registry[name]; ok {
		st, ok := e.state.(*MutableState[T])
		if !ok {
			fail("S008", "named state %q holds %T", name, e.state)
		}
		return st
	}

	var v T
	func() {
		m.factories++
		m.untracked++
		defer func() {
			m.factories--
			m.untracked--
		}()
		v = factory()
	}()

	st := newMutable(m, v, MutableOptions[T]{}, nil)
	st.c.name = name
	if owner != nil {
		st.c.owner = owner
		owner.ownNamed(st)
	}
	registry[name] = &namedEntry{state: st}
	return st
}

// forgetNamed removes st from the registry it was stored in.
func (m *StateManager) forgetNamed(c *cellBase, st any) {
	if c.name == "" {
		return
	}
	registry := m.named
	if c.owner != nil {
		registry = c.owner.named
	}
	if e, ok := registry[c.name]; ok && e.state == st {
		delete(registry, c.name)
	}
}

// lookup resolves name in the computing scope chain, then globally when
// global is set.
func (m *StateManager) lookup(name string, local, global bool) (*namedEntry, bool) {
	if local {
		for s := m.current(); s != nil; s = s.parent {
			if e, ok := s.named[name]; ok {
				return e, true
			}
		}
	}
	if global {
		e, ok := m.named[name]
		return e, ok
	}
	return nil, false
}

// StateBy returns the state registered under name. With local set, the
// computing scope and its ancestors are searched; otherwise the global
// registry is.
func StateBy[T any](m *StateManager, name string, local bool) (State[T], bool) {
	e, ok := m.lookup(name, local, !local)
	if !ok {
		return nil, false
	}
	st, ok := e.state.(State[T])
	return st, ok
}

// ValueBy returns the value of the state registered under name, searching
// local scopes first and the global registry last. It panics with
// ErrStateNotFound or ErrStateType.
func ValueBy[T any](m *StateManager, name string) T {
	e, ok := m.lookup(name, true, true)
	if !ok {
		fail("S007", "no state named %q", name)
	}
	st, ok := e.state.(State[T])
	if !ok {
		fail("S008", "state %q is %T", name, e.state)
	}
	return st.Value()
}
