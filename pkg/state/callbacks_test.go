package state

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCallbackScheduledByCallbackRunsNextFrame(t *testing.T) {
	m := NewStateManager()
	var log []string
	m.ScheduleCallback(func() {
		log = append(log, "first")
		m.ScheduleCallback(func() { log = append(log, "second") })
	})

	RunUpdatePass(false, m)
	if len(log) != 0 {
		t.Fatalf("callbacks ran without advancing the frame: %v", log)
	}

	RunUpdatePass(true, m)
	if diff := cmp.Diff([]string{"first"}, log); diff != "" {
		t.Errorf("frame 1 mismatch (-want +got):\n%s", diff)
	}

	RunUpdatePass(true, m)
	if diff := cmp.Diff([]string{"first", "second"}, log); diff != "" {
		t.Errorf("frame 2 mismatch (-want +got):\n%s", diff)
	}
	if m.PendingCallbacks() != 0 {
		t.Errorf("PendingCallbacks() = %d, want 0", m.PendingCallbacks())
	}
}

func TestCallbackWritesApplyInSamePass(t *testing.T) {
	m := NewStateManager()
	s := Mutable(m, 0)
	m.ScheduleCallback(func() { s.Set(1) })

	if n := RunUpdatePass(true, m); n != 1 {
		t.Errorf("modified = %d, want 1", n)
	}
	if s.Value() != 1 {
		t.Errorf("Value() = %d, want 1", s.Value())
	}
}

func TestCallbackFromContext(t *testing.T) {
	m := NewStateManager()
	s := Mutable(m, 0)
	c := Computable(m, func(ctx *Context) int {
		v := s.Value()
		if v < 3 {
			ctx.ScheduleCallback(func() { s.Set(v + 1) })
		}
		return v
	})

	frames := 0
	for c.Value() < 3 {
		RunUpdatePass(true, m)
		frames++
		if frames > 10 {
			t.Fatal("callbacks did not converge")
		}
	}
	if frames != 3 {
		t.Errorf("frames = %d, want 3", frames)
	}
}

func TestPanickingCallbackKeepsRest(t *testing.T) {
	m := NewStateManager()
	ran := false
	m.ScheduleCallback(func() { panic("boom") })
	m.ScheduleCallback(func() { ran = true })

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected the callback panic to propagate")
			}
		}()
		m.CallCallbacks()
	}()

	if m.PendingCallbacks() != 1 {
		t.Fatalf("PendingCallbacks() = %d, want 1", m.PendingCallbacks())
	}
	m.CallCallbacks()
	if !ran {
		t.Error("remaining callback did not run")
	}
}

func TestCallbackBudget(t *testing.T) {
	m := NewStateManager(WithCallbackBudget(2))
	var log []int
	for i := 0; i < 3; i++ {
		m.ScheduleCallback(func() {
			log = append(log, i)
			if i == 0 {
				m.ScheduleCallback(func() { log = append(log, 10) })
			}
		})
	}

	RunUpdatePass(true, m)
	if diff := cmp.Diff([]int{0, 1}, log); diff != "" {
		t.Errorf("frame 1 mismatch (-want +got):\n%s", diff)
	}

	// Carried callbacks run ahead of the ones scheduled meanwhile.
	RunUpdatePass(true, m)
	if diff := cmp.Diff([]int{0, 1, 2, 10}, log); diff != "" {
		t.Errorf("frame 2 mismatch (-want +got):\n%s", diff)
	}

	stats := m.BudgetStats()
	if stats.MaxPerFrame != 2 || stats.DeferredTotal != 1 || stats.FramesThrottled != 1 {
		t.Errorf("BudgetStats() = %+v", stats)
	}
}

func TestNilBudget(t *testing.T) {
	var b *CallbackBudget
	if n := b.allow(100); n != 100 {
		t.Errorf("allow() = %d, want 100", n)
	}
	if b.Stats() != (BudgetStats{}) {
		t.Error("nil budget should report zero stats")
	}
	if NewCallbackBudget(0) != nil {
		t.Error("NewCallbackBudget(0) should disable the budget")
	}
}

func TestCallCallbacksInsideComputation(t *testing.T) {
	m := NewStateManager()
	c := Computable(m, func(ctx *Context) int {
		ctx.Manager().CallCallbacks()
		return 0
	})
	if _, err := c.Result(); !errors.Is(err, ErrIllegalNesting) {
		t.Errorf("Result() error = %v, want ErrIllegalNesting", err)
	}
}
