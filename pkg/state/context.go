package state

import "time"

// NodeParent is implemented by node payloads that hold attached children.
// prev is nil when child goes first.
type NodeParent interface {
	InsertChildAfter(prev, child any)
	RemoveChild(child any)
}

// Context is the handle a computation receives. It is only valid while its
// scope is computing.
type Context struct {
	scope *scope
}

// Manager returns the manager that owns the computation.
func (c *Context) Manager() *StateManager { return c.scope.manager }

// Node returns the node of the scope being updated or detached, or nil
// outside Attach callbacks and updatable nodes and while a node is being
// created.
func (c *Context) Node() any {
	if c.scope.manager.creating > 0 || !c.scope.hasNode {
		return nil
	}
	return c.scope.node
}

// Leaf reports whether the context belongs to a leaf scope.
func (c *Context) Leaf() bool { return c.scope.leaf }

// ScheduleCallback queues fn to run on the next frame.
func (c *Context) ScheduleCallback(fn func()) {
	c.scope.manager.ScheduleCallback(fn)
}

// enter checks that the scope may open a child scope for op.
func (c *Context) enter(op string) *scope {
	s := c.scope
	m := s.manager
	switch {
	case m.current() != s:
		fail("S009", "%s called on a %s context that is not computing", op, s.kind)
	case m.factories > 0:
		fail("S002", "%s called inside a named state factory", op)
	case m.creating > 0:
		fail("S002", "%s called inside a node create callback", op)
	case s.leaf:
		fail("S002", "%s called inside a leaf scope", op)
	}
	return s
}

// NodeOf returns the context's node as N.
func NodeOf[N any](ctx *Context) (N, bool) {
	n, ok := ctx.Node().(N)
	return n, ok
}

// Compute returns the value of the child computation keyed by id, running f
// only when the child is new or stale.
func Compute[T any](ctx *Context, id int, f func(*Context) T) T {
	return ComputeWith(ctx, id, f, nil, false)
}

// ComputeWith is Compute with a cleanup callback, called with the last
// value when the child is disposed, and a leaf flag. A leaf computation may
// not nest computations or nodes, and changes to what it read do not make
// its parent stale; it runs again when the parent revisits it.
func ComputeWith[T any](ctx *Context, id int, f func(*Context) T, cleanup func(T), leaf bool) T {
	parent := ctx.enter("Compute")
	m := parent.manager
	c := parent.child(id, KindCompute)
	if c == nil {
		c = newScope(m, KindCompute, id, parent)
		c.leaf = leaf
		c.equal = erase[T](nil)
		parent.insert(c)
	}
	if cleanup != nil {
		c.cleanup = func(v any) { cleanup(as[T](v)) }
	} else {
		c.cleanup = nil
	}

	if c.needsRecompute() {
		start := time.Now()
		v := c.run(func(cc *Context) any { return f(cc) })
		c.store(v)
		m.scopeRecomputed(KindCompute, start, nil)
	}
	return as[T](c.value)
}

// Attach creates, updates or keeps the child node keyed by id below the
// nearest updatable node. update runs on every visit with the child's node
// bound. A new child is created once the owner's run has detached the
// children it did not visit: create runs then with no node bound, followed
// by the first update. Children not visited in a run are detached
// depth-first, each with its own node bound.
func Attach[N any](ctx *Context, id int, create func() N, update func(*Context), detach func(*Context)) {
	parent := ctx.enter("Attach")
	owner := parent.nodeOwner()
	if owner == nil {
		fail("S002", "Attach called outside an updatable node")
	}
	c := parent.child(id, KindAttach)
	if c == nil {
		c = newScope(parent.manager, KindAttach, id, parent)
		c.hasNode = true
		c.pending = true
		c.create = func() any { return create() }
		parent.insert(c)
		owner.attached = append(owner.attached, c)
	}
	c.detach = detach
	c.update = update
	if !c.pending {
		c.runAttach()
	}
}

// Remember returns the value f produced on the first visit of id. f runs as
// a leaf computation and runs again only when the states it read changed
// and the parent revisits id.
func Remember[T any](ctx *Context, id int, f func() T) T {
	return ComputeWith(ctx, id, func(*Context) T { return f() }, nil, true)
}

// RememberMutable returns a local mutable state created on the first visit
// of id and disposed with the parent scope.
func RememberMutable[T any](ctx *Context, id int, initial T) *MutableState[T] {
	return ComputeWith(ctx, id, func(c *Context) *MutableState[T] {
		return MutableWith(c.Manager(), initial, MutableOptions[T]{Local: true})
	}, nil, true)
}
