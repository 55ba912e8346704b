package state

import "time"

// ScopeKind identifies what created a scope.
type ScopeKind uint8

const (
	KindComputable ScopeKind = iota + 1
	KindNode
	KindCompute
	KindAttach
	KindMemo
)

// String returns a human-readable name for the scope kind.
func (k ScopeKind) String() string {
	switch k {
	case KindComputable:
		return "computable"
	case KindNode:
		return "node"
	case KindCompute:
		return "compute"
	case KindAttach:
		return "attach"
	case KindMemo:
		return "memo"
	default:
		return "unknown"
	}
}

// PassReport describes one completed update pass.
type PassReport struct {
	Pass      uint64        `json:"pass"`
	Writes    int           `json:"writes"`
	Modified  int           `json:"modified"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}

// Observer receives runtime events. Observers are called synchronously on the
// manager's goroutine and must not call back into the manager.
type Observer interface {
	// PassCompleted is called after every UpdateSnapshot.
	PassCompleted(report PassReport)

	// CallbacksRun is called after a frame of deferred callbacks ran.
	// deferred counts callbacks carried to the next frame by the budget.
	CallbacksRun(ran, deferred int)

	// ScopeRecomputed is called after a scope finished running. err is set
	// when a top-level computation failed.
	ScopeRecomputed(kind ScopeKind, elapsed time.Duration, err error)

	// ScopeDisposed is called after a scope and its subtree were disposed.
	ScopeDisposed(kind ScopeKind)
}

// NopObserver implements Observer with no-ops. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) PassCompleted(PassReport)                        {}
func (NopObserver) CallbacksRun(int, int)                           {}
func (NopObserver) ScopeRecomputed(ScopeKind, time.Duration, error) {}
func (NopObserver) ScopeDisposed(ScopeKind)                         {}
