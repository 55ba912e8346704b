package state

import (
	"errors"
	"testing"
)

// expectPanic runs fn and fails unless it panics with an error matching target.
func expectPanic(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic with %v", target)
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, target) {
			t.Fatalf("panic = %v, want %v", r, target)
		}
	}()
	fn()
}
