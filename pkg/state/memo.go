package state

import "time"

// paramSlot holds one parameter of a memo scope.
type paramSlot struct {
	state   any
	changed bool
	// name is set when the parameter is registered in the parent scope.
	name string
}

// MemoScope is a child scope whose cached value is reused while its
// parameters are unchanged and nothing it read changed:
//
//	ms := state.Scope[string](ctx, 3, 1)
//	name := state.Param(ms, 0, user.Name)
//	if ms.Unchanged() {
//	    return ms.Cached()
//	}
//	return ms.Recache("Hello " + name.Value())
type MemoScope[T any] struct {
	s     *scope
	start time.Time
}

// Scope returns the memo scope keyed by id with paramCount parameters.
func Scope[T any](ctx *Context, id int, paramCount int) *MemoScope[T] {
	parent := ctx.enter("Scope")
	c := parent.child(id, KindMemo)
	if c == nil || len(c.params) != paramCount {
		if c != nil {
			// Arity changed: start over with a fresh scope.
			parent.cursor--
			parent.children = append(parent.children[:parent.cursor], parent.children[parent.cursor+1:]...)
			c.dispose()
		}
		c = newScope(parent.manager, KindMemo, id, parent)
		c.params = make([]*paramSlot, paramCount)
		c.equal = erase[T](nil)
		parent.insert(c)
	}
	return &MemoScope[T]{s: c}
}

// Unchanged reports whether the cached value can be reused. When it returns
// false the scope starts computing: use Context for nested calls and finish
// with Recache.
func (ms *MemoScope[T]) Unchanged() bool {
	s := ms.s
	if s.computing {
		return false
	}
	changed := false
	for _, p := range s.params {
		if p == nil || p.changed {
			changed = true
		}
	}
	if !changed && s.computed && !s.needsRecompute() {
		return true
	}
	ms.start = time.Now()
	s.begin()
	return false
}

// Cached returns the cached value.
func (ms *MemoScope[T]) Cached() T {
	return as[T](ms.s.value)
}

// Recache stores v as the scope's value and finishes the computation
// started by Unchanged.
func (ms *MemoScope[T]) Recache(v T) T {
	s := ms.s
	if !s.computing {
		fail("S002", "Recache called on a memo scope that is not computing")
	}
	s.end()
	s.store(v)
	for _, p := range s.params {
		if p != nil {
			p.changed = false
		}
	}
	s.manager.scopeRecomputed(KindMemo, ms.start, nil)
	return v
}

// Context returns the context of the memo scope.
func (ms *MemoScope[T]) Context() *Context { return ms.s.context() }

// ParamState is a parameter of a memo scope. It cannot be disposed.
type ParamState[P any] struct {
	c     *cell[P]
	scope *scope
}

// Param binds v to parameter i of ms.
func Param[P, T any](ms *MemoScope[T], i int, v P) *ParamState[P] {
	return ParamEx(ms, i, v, nil, "", false)
}

// ParamEx binds v to parameter i of ms, comparing with eq. A named parameter
// can be found with StateBy and ValueBy from inside the memo scope, or also
// from its siblings when contextLocal is false.
func ParamEx[P, T any](ms *MemoScope[T], i int, v P, eq func(a, b P) bool, name string, contextLocal bool) *ParamState[P] {
	s := ms.s
	if i < 0 || i >= len(s.params) {
		fail("S002", "parameter %d out of range for a scope of %d", i, len(s.params))
	}
	slot := s.params[i]
	if slot == nil {
		m := s.manager
		m.nextID++
		if eq == nil {
			eq = defaultEquals[P]
		}
		p := &ParamState[P]{
			c: &cell[P]{
				cellBase: cellBase{manager: m, id: m.nextID, name: name, owner: s},
				value:    v,
				equal:    eq,
			},
			scope: s,
		}
		slot = &paramSlot{state: p, changed: true}
		s.params[i] = slot
		if name != "" {
			registry := s
			if !contextLocal && s.parent != nil {
				registry = s.parent
				slot.name = name
			}
			if registry.named == nil {
				registry.named = make(map[string]*namedEntry)
			}
			registry.named[name] = &namedEntry{state: p}
		}
		return p
	}

	p, ok := slot.state.(*ParamState[P])
	if !ok {
		fail("S008", "parameter %d holds %T", i, slot.state)
	}
	if !p.c.equal(p.c.value, v) {
		p.c.value = v
		slot.changed = true
		p.c.changedAt = s.manager.pass
		p.c.invalidate()
	}
	return p
}

// forgetParams removes the parameters s registered in its parent.
func (s *scope) forgetParams() {
	if s.parent == nil {
		return
	}
	for _, slot := range s.params {
		if slot == nil || slot.name == "" {
			continue
		}
		if e, ok := s.parent.named[slot.name]; ok && e.state == slot.state {
			delete(s.parent.named, slot.name)
		}
	}
}

// Value returns the parameter value and records a dependency.
func (p *ParamState[P]) Value() P { return p.c.get() }

// Peek returns the parameter value without recording a dependency.
func (p *ParamState[P]) Peek() P { return p.c.value }

// Modified reports whether the parameter changed in the current pass.
func (p *ParamState[P]) Modified() bool { return p.c.modified() }

// Name returns the parameter name.
func (p *ParamState[P]) Name() string { return p.c.name }

// Dispose always panics: parameters live as long as their scope.
func (p *ParamState[P]) Dispose() {
	fail("S001", "parameter state %s cannot be disposed", p.c.label())
}

func (p *ParamState[P]) peekAny() any { return p.c.value }
