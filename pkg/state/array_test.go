package state

import (
	"cmp"
	"errors"
	"testing"

	gocmp "github.com/google/go-cmp/cmp"
)

func TestArraySortRecomputesJoin(t *testing.T) {
	m := NewStateManager()
	arr := Array(m, []string{"one", "two", "three"})
	joined := Computable(m, func(ctx *Context) string {
		return arr.Join(" ")
	})

	if got := joined.Value(); got != "one two three" {
		t.Fatalf("joined = %q", got)
	}

	arr.Sort(nil)
	if n := RunUpdatePass(false, m); n != 1 {
		t.Errorf("sort modified %d states, want 1", n)
	}
	if got := joined.Value(); got != "one three two" {
		t.Errorf("joined = %q, want %q", got, "one three two")
	}

	arr.Sort(nil)
	if n := RunUpdatePass(false, m); n != 0 {
		t.Errorf("sorting a sorted array modified %d states, want 0", n)
	}
}

func TestArrayMutators(t *testing.T) {
	tests := []struct {
		name string
		op   func(a *ArrayState[int])
		want []int
	}{
		{"push", func(a *ArrayState[int]) { a.Push(6) }, []int{1, 2, 3, 4, 5, 6}},
		{"pop", func(a *ArrayState[int]) { a.Pop() }, []int{1, 2, 3, 4}},
		{"shift", func(a *ArrayState[int]) { a.Shift() }, []int{2, 3, 4, 5}},
		{"unshift", func(a *ArrayState[int]) { a.Unshift(-1, 0) }, []int{-1, 0, 1, 2, 3, 4, 5}},
		{"splice", func(a *ArrayState[int]) { a.Splice(1, 2, 9) }, []int{1, 9, 4, 5}},
		{"splice negative start", func(a *ArrayState[int]) { a.Splice(-2, 1) }, []int{1, 2, 3, 5}},
		{"reverse", func(a *ArrayState[int]) { a.Reverse() }, []int{5, 4, 3, 2, 1}},
		{"fill range", func(a *ArrayState[int]) { a.Fill(0, 1, 3) }, []int{1, 0, 0, 4, 5}},
		{"fill all", func(a *ArrayState[int]) { a.Fill(7) }, []int{7, 7, 7, 7, 7}},
		{"copy within", func(a *ArrayState[int]) { a.CopyWithin(0, 3) }, []int{4, 5, 3, 4, 5}},
		{"copy within overlap", func(a *ArrayState[int]) { a.CopyWithin(1, 0, 2) }, []int{1, 1, 2, 4, 5}},
		{"set grows", func(a *ArrayState[int]) { a.Set(6, 9) }, []int{1, 2, 3, 4, 5, 0, 9}},
		{"set length", func(a *ArrayState[int]) { a.SetLength(2) }, []int{1, 2}},
		{"sort descending", func(a *ArrayState[int]) {
			a.Sort(func(x, y int) int { return cmp.Compare(y, x) })
		}, []int{5, 4, 3, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStateManager()
			a := Array(m, []int{1, 2, 3, 4, 5})

			tt.op(a)
			if a.Length() != 5 {
				t.Errorf("snapshot changed before the update pass: %v", a.Peek())
			}
			if n := m.UpdateSnapshot(); n != 1 {
				t.Errorf("modified = %d, want 1", n)
			}
			if diff := gocmp.Diff(tt.want, a.Value()); diff != "" {
				t.Errorf("contents mismatch (-want +got):\n%s", diff)
			}
			if !a.Modified() {
				t.Error("Modified() = false")
			}
		})
	}
}

func TestArrayNoOps(t *testing.T) {
	tests := []struct {
		name string
		op   func(a *ArrayState[int])
	}{
		{"copy within itself", func(a *ArrayState[int]) { a.CopyWithin(0, 0) }},
		{"sort sorted", func(a *ArrayState[int]) { a.Sort(cmp.Compare[int]) }},
		{"fill same", func(a *ArrayState[int]) { a.Fill(3, 2, 3) }},
		{"push then pop", func(a *ArrayState[int]) {
			a.Push(6)
			a.Pop()
		}},
		{"reverse twice", func(a *ArrayState[int]) {
			a.Reverse()
			a.Reverse()
		}},
		{"set same", func(a *ArrayState[int]) { a.Set(0, 1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStateManager()
			a := Array(m, []int{1, 2, 3, 4, 5})

			tt.op(a)
			if n := m.UpdateSnapshot(); n != 0 {
				t.Errorf("modified = %d, want 0", n)
			}
		})
	}
}

func TestArrayBurstCountsOnce(t *testing.T) {
	m := NewStateManager()
	a := Array(m, []int{})

	a.Push(1)
	a.Push(2)
	a.Unshift(0)
	a.Set(3, 3)
	if n := m.UpdateSnapshot(); n != 1 {
		t.Errorf("modified = %d, want 1", n)
	}
	if diff := gocmp.Diff([]int{0, 1, 2, 3}, a.Value()); diff != "" {
		t.Errorf("contents mismatch (-want +got):\n%s", diff)
	}
}

func TestArrayReturnValues(t *testing.T) {
	m := NewStateManager()
	a := Array(m, []string{"a", "b", "c"})

	if n := a.Push("d"); n != 4 {
		t.Errorf("Push() = %d, want 4", n)
	}
	if v, ok := a.Pop(); !ok || v != "d" {
		t.Errorf("Pop() = %q, %v", v, ok)
	}
	if v, ok := a.Shift(); !ok || v != "a" {
		t.Errorf("Shift() = %q, %v", v, ok)
	}
	if removed := a.Splice(0, 5); !gocmp.Equal(removed, []string{"b", "c"}) {
		t.Errorf("Splice() removed %v", removed)
	}
	if _, ok := a.Pop(); ok {
		t.Error("Pop() on an empty array should report false")
	}

	m.UpdateSnapshot()
	if a.Length() != 0 {
		t.Errorf("Length() = %d, want 0", a.Length())
	}
}

func TestArrayAt(t *testing.T) {
	m := NewStateManager()
	a := Array(m, []int{10, 20, 30})

	if v, ok := a.At(-1); !ok || v != 30 {
		t.Errorf("At(-1) = %d, %v", v, ok)
	}
	if _, ok := a.At(3); ok {
		t.Error("At(3) should be out of range")
	}
}

func TestArrayDependentsTrackWholeArray(t *testing.T) {
	m := NewStateManager()
	a := Array(m, []int{1, 2, 3})
	calls := 0
	first := Computable(m, func(ctx *Context) int {
		calls++
		v, _ := a.At(0)
		return v
	})

	first.Value()
	a.Set(2, 9)
	m.UpdateSnapshot()
	first.Value()
	if calls != 2 {
		t.Errorf("any change should invalidate readers, calls = %d", calls)
	}
}

func TestArrayWriteInsideComputation(t *testing.T) {
	m := NewStateManager()
	a := Array(m, []int{1})
	c := Computable(m, func(ctx *Context) int {
		a.Push(2)
		return 0
	})

	if _, err := c.Result(); !errors.Is(err, ErrIllegalWrite) {
		t.Errorf("Result() error = %v, want ErrIllegalWrite", err)
	}
}
