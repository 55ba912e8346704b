// Package state provides the incremental state runtime: reactive cells,
// dependency-tracked computations, scoped named state and a tree of
// attached nodes, all driven by explicit update passes.
//
// # Cells
//
// A MutableState is a managed cell. Writes are buffered and become visible
// with the next update pass, in which the cell reports Modified:
//
//	m := state.NewStateManager()
//	count := state.Mutable(m, 200)
//	count.Set(404)
//	count.Value()       // 200
//	m.UpdateSnapshot()  // 1 modified state
//	count.Value()       // 404
//
// Named states live in the global registry (Named) or in the scope that is
// currently computing (NamedLocal). ArrayState wraps a slice with array
// mutators and reports one modification per pass for any real change.
//
// # Computations
//
// Computable creates a pull-based derived state. Every factory receives a
// *Context; cells read while it runs become dependencies, and nested
// Compute calls create child scopes keyed by caller supplied ids:
//
//	total := state.Computable(m, func(ctx *state.Context) int {
//	    a := state.Compute(ctx, 1, func(*state.Context) int { return x.Value() * 2 })
//	    return a + y.Value()
//	})
//
// An update pass only marks dependents stale. They recompute when read.
//
// # Trees
//
// UpdatableNode binds a computation to a node payload. Attach creates,
// updates and detaches child nodes keyed by id; children that are not
// visited in a run are detached depth-first. Payloads implementing
// NodeParent receive the structural changes.
//
// # Errors
//
// Contract violations panic with coded errors (ErrIllegalDisposal,
// ErrIllegalNesting, ...). Violations inside a top-level computation are
// captured and surface on the next access: Value panics with the stored
// error, Result returns it.
//
// # Concurrency
//
// A StateManager and everything created from it must be confined to a single
// goroutine. Use ScheduleCallback to defer work to the next frame.
package state
