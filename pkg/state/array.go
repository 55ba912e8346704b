package state

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// ArrayState is a managed slice with array mutators. Mutations work on a
// private copy of the latest value; the update pass compares elements and
// reports at most one modification, and none when the contents end up
// unchanged.
type ArrayState[T any] struct {
	c *cell[[]T]
}

// Array creates a global array state holding a copy of initial.
func Array[T any](m *StateManager, initial []T) *ArrayState[T] {
	return ArrayWith(m, initial, nil)
}

// ArrayWith creates an array state comparing elements with eq.
func ArrayWith[T any](m *StateManager, initial []T, eq func(a, b T) bool) *ArrayState[T] {
	if m.factories > 0 {
		fail("S002", "array state created inside a named state factory")
	}
	if eq == nil {
		eq = defaultEquals[T]
	}
	elems := func(a, b []T) bool {
		return slices.EqualFunc(a, b, eq)
	}
	return &ArrayState[T]{c: newCell(m, slices.Clone(initial), elems, nil)}
}

// Value returns the snapshot slice and records a dependency. The slice must
// not be modified.
func (a *ArrayState[T]) Value() []T { return a.c.get() }

// Peek returns the snapshot slice without recording a dependency.
func (a *ArrayState[T]) Peek() []T { return a.c.value }

// Modified reports whether the last update pass changed the contents.
func (a *ArrayState[T]) Modified() bool { return a.c.modified() }

// Length returns the snapshot length.
func (a *ArrayState[T]) Length() int { return len(a.c.get()) }

// At returns the element at i. Negative indexes count from the end.
func (a *ArrayState[T]) At(i int) (T, bool) {
	v := a.c.get()
	if i < 0 {
		i += len(v)
	}
	if i < 0 || i >= len(v) {
		var zero T
		return zero, false
	}
	return v[i], true
}

// Join formats the snapshot elements and joins them with sep.
func (a *ArrayState[T]) Join(sep string) string {
	v := a.c.get()
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = fmt.Sprint(e)
	}
	return strings.Join(parts, sep)
}

// Dispose detaches the array from the manager.
func (a *ArrayState[T]) Dispose() {
	if a.c.disposed {
		return
	}
	a.c.checkDisposal()
	a.c.dispose()
}

// Disposed reports whether the array was disposed.
func (a *ArrayState[T]) Disposed() bool { return a.c.disposed }

func (a *ArrayState[T]) peekAny() any { return a.c.value }

// mutate applies fn to a copy of the latest contents and writes the result.
func (a *ArrayState[T]) mutate(fn func([]T) []T) {
	work := fn(slices.Clone(a.c.latest()))
	if err := a.c.write(work); err != nil {
		panic(err)
	}
}

// Push appends items and returns the new length.
func (a *ArrayState[T]) Push(items ...T) int {
	n := 0
	a.mutate(func(v []T) []T {
		v = append(v, items...)
		n = len(v)
		return v
	})
	return n
}

// Pop removes and returns the last element.
func (a *ArrayState[T]) Pop() (T, bool) {
	var out T
	if len(a.c.latest()) == 0 {
		return out, false
	}
	a.mutate(func(v []T) []T {
		out = v[len(v)-1]
		return v[:len(v)-1]
	})
	return out, true
}

// Shift removes and returns the first element.
func (a *ArrayState[T]) Shift() (T, bool) {
	var out T
	if len(a.c.latest()) == 0 {
		return out, false
	}
	a.mutate(func(v []T) []T {
		out = v[0]
		return v[1:]
	})
	return out, true
}

// Unshift prepends items and returns the new length.
func (a *ArrayState[T]) Unshift(items ...T) int {
	n := 0
	a.mutate(func(v []T) []T {
		v = slices.Insert(v, 0, items...)
		n = len(v)
		return v
	})
	return n
}

// Splice removes deleteCount elements at start, inserts items in their place
// and returns the removed elements. A negative start counts from the end.
func (a *ArrayState[T]) Splice(start, deleteCount int, items ...T) []T {
	var removed []T
	a.mutate(func(v []T) []T {
		start = relIndex(start, len(v))
		deleteCount = max(0, min(deleteCount, len(v)-start))
		removed = slices.Clone(v[start : start+deleteCount])
		return slices.Replace(v, start, start+deleteCount, items...)
	})
	return removed
}

// Sort sorts the elements with compare, keeping the order of equal
// elements. A nil compare orders elements by their formatted text.
func (a *ArrayState[T]) Sort(compare func(a, b T) int) {
	if compare == nil {
		compare = func(x, y T) int {
			return cmp.Compare(fmt.Sprint(x), fmt.Sprint(y))
		}
	}
	a.mutate(func(v []T) []T {
		slices.SortStableFunc(v, compare)
		return v
	})
}

// Reverse reverses the elements.
func (a *ArrayState[T]) Reverse() {
	a.mutate(func(v []T) []T {
		slices.Reverse(v)
		return v
	})
}

// Fill sets elements to x. Optional bounds are start and end indexes;
// negative indexes count from the end.
func (a *ArrayState[T]) Fill(x T, bounds ...int) {
	a.mutate(func(v []T) []T {
		start, end := span(len(v), bounds)
		for i := start; i < end; i++ {
			v[i] = x
		}
		return v
	})
}

// CopyWithin copies the elements between the optional start and end bounds
// to target, without changing the length.
func (a *ArrayState[T]) CopyWithin(target int, bounds ...int) {
	a.mutate(func(v []T) []T {
		to := relIndex(target, len(v))
		start, end := span(len(v), bounds)
		n := min(end-start, len(v)-to)
		if n > 0 {
			copy(v[to:to+n], v[start:start+n])
		}
		return v
	})
}

// Set stores x at index i, growing the array with zero values when needed.
func (a *ArrayState[T]) Set(i int, x T) {
	if i < 0 {
		panic(fmt.Sprintf("state: array index %d out of range", i))
	}
	a.mutate(func(v []T) []T {
		if i >= len(v) {
			v = append(v, make([]T, i+1-len(v))...)
		}
		v[i] = x
		return v
	})
}

// SetLength truncates the array or grows it with zero values.
func (a *ArrayState[T]) SetLength(n int) {
	if n < 0 {
		panic(fmt.Sprintf("state: invalid array length %d", n))
	}
	a.mutate(func(v []T) []T {
		if n <= len(v) {
			return v[:n]
		}
		return append(v, make([]T, n-len(v))...)
	})
}

// relIndex resolves a possibly negative index against length n, clamped to
// [0, n].
func relIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	return max(0, min(i, n))
}

// span resolves optional start and end bounds against length n.
func span(n int, bounds []int) (start, end int) {
	start, end = 0, n
	if len(bounds) > 0 {
		start = relIndex(bounds[0], n)
	}
	if len(bounds) > 1 {
		end = relIndex(bounds[1], n)
	}
	if end < start {
		end = start
	}
	return start, end
}
