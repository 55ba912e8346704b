package state

// ComputableState is a derived state computed on demand. The factory runs on
// the first read and again on the first read after something it read
// changed.
type ComputableState[T any] struct {
	s *scope
}

// Computable creates a top-level computed state.
func Computable[T any](m *StateManager, f func(*Context) T) *ComputableState[T] {
	return ComputableWith(m, f, nil)
}

// ComputableWith creates a computed state whose readers are only invalidated
// when the new value is not equivalent to the previous one.
func ComputableWith[T any](m *StateManager, f func(*Context) T, eq func(a, b T) bool) *ComputableState[T] {
	s := m.topLevel(KindComputable, "Computable")
	s.equal = erase(eq)
	s.body = func(ctx *Context) any { return f(ctx) }
	return &ComputableState[T]{s: s}
}

// topLevel creates and registers a scope without a parent.
func (m *StateManager) topLevel(kind ScopeKind, op string) *scope {
	if m.busy() {
		fail("S002", "%s created inside a computation", op)
	}
	m.nextID++
	s := newScope(m, kind, m.nextID, nil)
	m.addRoot(s)
	return s
}

// Value returns the computed value, computing it if needed, and records a
// dependency. It panics with the error the computation failed with.
func (c *ComputableState[T]) Value() T {
	v, err := c.Result()
	if err != nil {
		panic(err)
	}
	return v
}

// Result is like Value but returns the failure instead of panicking.
func (c *ComputableState[T]) Result() (T, error) {
	v, err := c.s.read()
	return as[T](v), err
}

// Modified reports whether a recomputation in the current pass changed the
// value.
func (c *ComputableState[T]) Modified() bool { return c.s.modified() }

// RecomputeNeeded reports whether the next read may recompute.
func (c *ComputableState[T]) RecomputeNeeded() bool { return c.s.stale() }

// Dispose disposes the computation tree and its cleanups.
func (c *ComputableState[T]) Dispose() { c.s.disposeTop() }

// Disposed reports whether Dispose was called.
func (c *ComputableState[T]) Disposed() bool { return c.s.disposed }

// NodeState is a top-level computation bound to a node. The updater runs with
// the node bound and may Attach children to it.
type NodeState[N any] struct {
	s *scope
}

// UpdatableNode creates a node computation for node.
func UpdatableNode[N any](m *StateManager, node N, updater func(*Context)) *NodeState[N] {
	s := m.topLevel(KindNode, "UpdatableNode")
	s.hasNode = true
	s.node = node
	s.equal = erase[N](nil)
	s.body = func(ctx *Context) any {
		updater(ctx)
		return s.node
	}
	return &NodeState[N]{s: s}
}

// Value brings the node up to date and returns it.
func (n *NodeState[N]) Value() N {
	v, err := n.Result()
	if err != nil {
		panic(err)
	}
	return v
}

// Result is like Value but returns the failure instead of panicking.
func (n *NodeState[N]) Result() (N, error) {
	_, err := n.s.read()
	return as[N](n.s.node), err
}

// Node returns the node without updating it.
func (n *NodeState[N]) Node() N { return as[N](n.s.node) }

// Modified reports whether an update in the current pass changed the node.
func (n *NodeState[N]) Modified() bool { return n.s.modified() }

// RecomputeNeeded reports whether the next read may run the updater.
func (n *NodeState[N]) RecomputeNeeded() bool { return n.s.stale() }

// Dispose detaches every child node and disposes the computation tree.
func (n *NodeState[N]) Dispose() { n.s.disposeTop() }

// Disposed reports whether Dispose was called.
func (n *NodeState[N]) Disposed() bool { return n.s.disposed }

func (s *scope) modified() bool {
	return s.changed && s.changedAt == s.manager.pass
}

func (s *scope) stale() bool {
	return !s.disposed && (s.recomputeNeeded || s.check)
}

func (s *scope) disposeTop() {
	if s.disposed {
		return
	}
	m := s.manager
	if cur := m.current(); cur != nil {
		fail("S001", "%s scope #%d disposed while a %s scope is computing", s.kind, s.id, cur.kind)
	}
	if m.factories > 0 {
		fail("S001", "%s scope #%d disposed inside a named state factory", s.kind, s.id)
	}
	s.dispose()
	m.removeRoot(s)
	m.logger.Debug("scope disposed", "kind", s.kind, "scope", s.id)
}
