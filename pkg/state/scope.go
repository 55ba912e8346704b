package state

import (
	"slices"
	"time"
)

// disposer is a state owned by a scope.
type disposer interface {
	dispose()
}

type depEntry struct {
	src     source
	version uint64
}

// scope is a node of the computation tree. Top-level scopes (computables
// and updatable nodes) have no parent; their readers are kept in dependents.
type scope struct {
	manager *StateManager
	kind    ScopeKind
	id      int
	parent  *scope

	// children in creation order; cursor is the next child expected in the
	// current run.
	children []*scope
	cursor   int

	leaf            bool
	recomputeNeeded bool
	// check is set when a source may have changed; resolved lazily.
	check     bool
	computing bool
	disposed  bool

	deps     []depEntry
	depIndex map[source]int

	// top-level only
	dependents map[*scope]struct{}
	version    uint64
	changedAt  uint64
	changed    bool
	err        error
	body       func(*Context) any

	computed bool
	value    any
	equal    func(a, b any) bool
	cleanup  func(any)

	hasNode bool
	node    any
	detach  func(*Context)
	update  func(*Context)
	// pending is set on attach children whose node is not created yet;
	// create runs when the node owner's run ends.
	pending  bool
	create   func() any
	attached []*scope

	// states holds named locals; locals holds the unnamed local states made
	// by the current run and retired those of the previous run.
	states  []disposer
	locals  []disposer
	retired []disposer
	named   map[string]*namedEntry
	params  []*paramSlot

	ctx *Context
}

func newScope(m *StateManager, kind ScopeKind, id int, parent *scope) *scope {
	return &scope{
		manager:         m,
		kind:            kind,
		id:              id,
		parent:          parent,
		recomputeNeeded: true,
	}
}

func (s *scope) context() *Context {
	if s.ctx == nil {
		s.ctx = &Context{scope: s}
	}
	return s.ctx
}

func (s *scope) own(d disposer) {
	s.locals = append(s.locals, d)
}

func (s *scope) ownNamed(d disposer) {
	s.states = append(s.states, d)
}

// child returns the child with id and kind, searching from the cursor.
// Children skipped over are disposed.
func (s *scope) child(id int, kind ScopeKind) *scope {
	for i := s.cursor; i < len(s.children); i++ {
		c := s.children[i]
		if c.id != id || c.kind != kind {
			continue
		}
		skipped := slices.Clone(s.children[s.cursor:i])
		s.children = slices.Delete(s.children, s.cursor, i)
		for _, d := range skipped {
			d.dispose()
		}
		s.cursor++
		return c
	}
	return nil
}

// insert adds c at the cursor.
func (s *scope) insert(c *scope) {
	s.children = slices.Insert(s.children, s.cursor, c)
	s.cursor++
}

func (s *scope) subscribe(d *scope) {
	if s.dependents == nil {
		s.dependents = make(map[*scope]struct{})
	}
	s.dependents[d] = struct{}{}
}

func (s *scope) unsubscribe(d *scope) {
	delete(s.dependents, d)
}

func (s *scope) addDep(src source, version uint64) {
	if src == source(s) {
		return
	}
	if i, ok := s.depIndex[src]; ok {
		s.deps[i].version = version
		return
	}
	if s.depIndex == nil {
		s.depIndex = make(map[source]int)
	}
	s.depIndex[src] = len(s.deps)
	s.deps = append(s.deps, depEntry{src: src, version: version})
	src.subscribe(s)
}

func (s *scope) clearDeps() {
	for _, d := range s.deps {
		d.src.unsubscribe(s)
	}
	s.deps = s.deps[:0]
	clear(s.depIndex)
}

// markStale is called when a state this scope read has changed.
func (s *scope) markStale() {
	if s.disposed || s.recomputeNeeded {
		return
	}
	s.recomputeNeeded = true
	if !s.leaf {
		s.notify()
	}
}

// markCheck is called when a child or a computable source may have changed.
func (s *scope) markCheck() {
	if s.disposed || s.recomputeNeeded || s.check {
		return
	}
	s.check = true
	if !s.leaf {
		s.notify()
	}
}

func (s *scope) notify() {
	if s.parent != nil {
		s.parent.markCheck()
		return
	}
	for d := range s.dependents {
		d.markCheck()
	}
}

// needsRecompute resolves pending checks and reports whether the scope has
// to run again.
func (s *scope) needsRecompute() bool {
	if s.recomputeNeeded {
		return true
	}
	if !s.check {
		return false
	}
	s.check = false
	for _, d := range s.deps {
		src, ok := d.src.(*scope)
		if !ok {
			continue
		}
		if src.needsRecompute() {
			src.refresh()
		}
		if src.err != nil || src.version != d.version {
			s.recomputeNeeded = true
			return true
		}
	}
	for _, c := range s.children {
		if !c.leaf && c.needsRecompute() {
			s.recomputeNeeded = true
			return true
		}
	}
	return false
}

func (s *scope) begin() {
	m := s.manager
	m.push(s)
	s.computing = true
	s.recomputeNeeded = true
	s.check = false
	s.cursor = 0
	s.retired = append(s.retired, s.locals...)
	s.locals = nil
	s.clearDeps()
}

// end disposes the children that were not visited, then creates the attach
// children first seen in this run, and pops the scope.
func (s *scope) end() {
	if s.cursor < len(s.children) {
		rest := slices.Clone(s.children[s.cursor:])
		s.children = s.children[:s.cursor]
		for _, c := range rest {
			c.dispose()
		}
	}
	s.attachPending()
	disposeAll(s.retired)
	s.retired = nil

	// A child can turn stale while s computes, e.g. when a later sibling
	// updates a named parameter it read. markCheck ignored it then.
	stale := false
	for _, c := range s.children {
		if !c.leaf && (c.recomputeNeeded || c.check) {
			stale = true
			break
		}
	}
	s.computing = false
	s.recomputeNeeded = false
	s.manager.pop(s)
	if stale {
		s.markCheck()
	}
}

// abort pops s and every scope left above it after a panic.
func (s *scope) abort() {
	m := s.manager
	for len(m.stack) > 0 {
		top := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
		top.computing = false
		top.dropPending()
		if top == s {
			return
		}
	}
}

// attachPending creates the nodes of the pending attach children of s in
// order, places each after the node before it and runs its update.
func (s *scope) attachPending() {
	m := s.manager
	for len(s.attached) > 0 {
		c := s.attached[0]
		if c.disposed || !c.pending {
			s.attached = s.attached[1:]
			continue
		}
		var node any
		func() {
			m.creating++
			m.untracked++
			defer func() {
				m.creating--
				m.untracked--
			}()
			node = c.create()
		}()
		c.node = node
		c.pending = false
		c.create = nil
		s.attached = s.attached[1:]
		if p, ok := s.node.(NodeParent); ok {
			var prev any
			s.nodeBefore(c, &prev)
			p.InsertChildAfter(prev, node)
		}
		c.runAttach()
	}
	s.attached = nil
}

// dropPending forgets the attach children of s that were never created.
func (s *scope) dropPending() {
	for _, c := range s.attached {
		if !c.pending {
			continue
		}
		c.disposed = true
		if p := c.parent; p != nil {
			if i := slices.Index(p.children, c); i >= 0 {
				p.children = slices.Delete(p.children, i, i+1)
			}
		}
	}
	s.attached = nil
}

// runAttach runs the update callback of an attach child.
func (s *scope) runAttach() {
	start := time.Now()
	update := s.update
	s.run(func(cc *Context) any {
		if update != nil {
			update(cc)
		}
		return nil
	})
	s.computed = true
	s.manager.scopeRecomputed(KindAttach, start, nil)
}

// run executes body as the scope's computation. A panic leaves the scope
// stale and its cached value untouched.
func (s *scope) run(body func(*Context) any) any {
	s.begin()
	done := false
	defer func() {
		if !done {
			s.abort()
		}
	}()
	v := body(s.context())
	s.end()
	done = true
	return v
}

// store caches v and reports whether it differs from the previous value.
func (s *scope) store(v any) bool {
	changed := !s.computed || s.equal == nil || !s.equal(s.value, v)
	if s.computed && changed {
		s.changed = true
		s.changedAt = s.manager.pass
	}
	s.value = v
	s.computed = true
	return changed
}

// refresh runs a top-level scope and stores either its value or the error
// it failed with.
func (s *scope) refresh() {
	m := s.manager
	if s.computing {
		fail("S006", "%s scope #%d read while computing", s.kind, s.id)
	}
	start := time.Now()
	var v any
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = asError(r)
			}
		}()
		v = s.run(s.body)
		return nil
	}()

	if err != nil {
		// Stay stale: the error is reported until a run succeeds.
		s.check = false
		if s.err == nil {
			s.version++
		}
		s.err = err
		m.logger.Debug("computation failed", "kind", s.kind, "scope", s.id, "err", err)
	} else {
		failed := s.err != nil
		s.err = nil
		if s.store(v) || failed {
			s.version++
		}
	}
	m.scopeRecomputed(s.kind, start, err)
}

// read returns the value of a top-level scope, recomputing it if needed,
// and records the read.
func (s *scope) read() (any, error) {
	if s.disposed {
		fail("S010", "%s scope #%d read after disposal", s.kind, s.id)
	}
	if s.needsRecompute() {
		s.refresh()
	}
	s.manager.track(s, s.version)
	return s.value, s.err
}

// nodeOwner returns the nearest scope, s included, carrying a node.
func (s *scope) nodeOwner() *scope {
	for p := s; p != nil; p = p.parent {
		if p.hasNode {
			return p
		}
	}
	return nil
}

// nodeBefore walks the children of s in order up to target and stores in
// prev the last created node met on the way. Nodes nested below another
// node are skipped.
func (s *scope) nodeBefore(target *scope, prev *any) bool {
	for _, c := range s.children {
		if c == target {
			return true
		}
		if c.hasNode {
			if !c.pending {
				*prev = c.node
			}
			continue
		}
		if c.nodeBefore(target, prev) {
			return true
		}
	}
	return false
}

func disposeAll(states []disposer) {
	for i := len(states) - 1; i >= 0; i-- {
		states[i].dispose()
	}
}

// dispose tears the scope down depth-first: children, then the detach or
// cleanup callback, then owned states.
func (s *scope) dispose() {
	if s.disposed {
		return
	}
	m := s.manager
	m.untracked++
	defer func() { m.untracked-- }()

	children := s.children
	s.children = nil
	for _, c := range children {
		c.dispose()
	}
	s.disposed = true
	s.clearDeps()

	switch {
	case s.kind == KindAttach && s.pending:
		s.create = nil
	case s.kind == KindAttach:
		if s.detach != nil {
			s.detach(s.context())
		}
		if s.parent != nil {
			if owner := s.parent.nodeOwner(); owner != nil {
				if p, ok := owner.node.(NodeParent); ok {
					p.RemoveChild(s.node)
				}
			}
		}
	case s.cleanup != nil && s.computed:
		s.cleanup(s.value)
	}

	disposeAll(s.retired)
	disposeAll(s.locals)
	disposeAll(s.states)
	s.retired, s.locals, s.states = nil, nil, nil
	s.forgetParams()
	s.named = nil
	s.params = nil

	for d := range s.dependents {
		d.markStale()
	}
	s.dependents = nil
	m.scopeDisposed(s.kind)
}
