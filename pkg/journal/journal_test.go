package journal

import (
	"testing"

	"github.com/google/uuid"

	"github.com/vango-dev/incremental/pkg/state"
)

func TestRecorderRecordsPasses(t *testing.T) {
	rec := NewRecorder(0)
	m := state.NewStateManager(state.WithObserver(rec), state.WithCallbackBudget(1))

	if _, err := uuid.Parse(rec.Session()); err != nil {
		t.Fatalf("session %q is not a uuid: %v", rec.Session(), err)
	}

	x := state.Mutable(m, 1)
	c := state.Computable(m, func(ctx *state.Context) int {
		if x.Value() > 1 {
			panic("too big")
		}
		return x.Value()
	})
	c.Value()

	m.ScheduleCallback(func() { x.Set(2) })
	m.ScheduleCallback(func() {})
	state.RunUpdatePass(true, m)
	c.Result()
	state.RunUpdatePass(true, m)
	rec.Capture(m)

	entries := rec.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	first, second := entries[0], entries[1]
	if first.Session != rec.Session() {
		t.Errorf("entry session = %q, want %q", first.Session, rec.Session())
	}
	if first.Report.Pass != 1 || first.Report.Modified != 1 || first.Callbacks != 1 || first.Deferred != 1 {
		t.Errorf("first entry = %+v", first)
	}
	if second.Report.Pass != 2 || second.Callbacks != 1 || second.Deferred != 0 || second.Failures != 1 {
		t.Errorf("second entry = %+v", second)
	}

	snap := rec.Latest()
	if snap == nil || snap.Pass != 2 || len(snap.Scopes) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestRecorderHistoryIsBounded(t *testing.T) {
	rec := NewRecorder(3)
	m := state.NewStateManager(state.WithObserver(rec))
	for i := 0; i < 5; i++ {
		m.UpdateSnapshot()
	}

	entries := rec.Entries()
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].Report.Pass != 3 || entries[2].Report.Pass != 5 {
		t.Errorf("passes = %d..%d, want 3..5", entries[0].Report.Pass, entries[2].Report.Pass)
	}
	if j := rec.Journal(); j.Dropped != 2 || len(j.Entries) != 3 {
		t.Errorf("journal dropped = %d entries = %d, want 2 and 3", j.Dropped, len(j.Entries))
	}
}

func TestRecorderSubscribe(t *testing.T) {
	rec := NewRecorder(0)
	m := state.NewStateManager(state.WithObserver(rec))

	var got []uint64
	cancel := rec.Subscribe(func(e Entry) { got = append(got, e.Report.Pass) })
	m.UpdateSnapshot()
	m.UpdateSnapshot()
	cancel()
	m.UpdateSnapshot()

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("notified passes = %v, want [1 2]", got)
	}
}
