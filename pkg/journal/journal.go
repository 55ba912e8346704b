// Package journal records what a state manager did, pass by pass, and
// exports the record to a file or an S3 bucket.
//
// A Recorder is a state.Observer. Attach it when creating the manager and
// call Capture after each frame to keep the latest snapshot:
//
//	rec := journal.NewRecorder(256)
//	m := state.NewStateManager(state.WithObserver(rec))
//	for {
//	    state.RunUpdatePass(true, m)
//	    rec.Capture(m)
//	}
//
// The recorder is safe to read from other goroutines while the manager's
// goroutine keeps writing to it.
package journal

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/incremental/pkg/state"
)

// Entry is one recorded update pass.
type Entry struct {
	Session   string           `json:"session"`
	Report    state.PassReport `json:"report"`
	Callbacks int              `json:"callbacks"`
	Deferred  int              `json:"deferred"`
	Failures  int              `json:"failures"`
}

// Journal is the exported form of a recorder.
type Journal struct {
	Session    string          `json:"session"`
	StartedAt  time.Time       `json:"startedAt"`
	ExportedAt time.Time       `json:"exportedAt"`
	Dropped    int             `json:"dropped"`
	Entries    []Entry         `json:"entries"`
	Snapshot   *state.Snapshot `json:"snapshot,omitempty"`
}

// Recorder keeps the most recent entries in a bounded history.
type Recorder struct {
	state.NopObserver

	session   string
	startedAt time.Time
	history   int

	mu       sync.RWMutex
	entries  []Entry
	dropped  int
	snapshot *state.Snapshot
	nextID   int
	subs     map[int]func(Entry)

	// counts gathered since the last pass, touched only by the manager goroutine
	callbacks, deferred, failures int
}

var _ state.Observer = (*Recorder)(nil)

// NewRecorder creates a recorder keeping at most history entries.
// A history of zero or less keeps everything.
func NewRecorder(history int) *Recorder {
	return &Recorder{
		session:   uuid.NewString(),
		startedAt: time.Now(),
		history:   history,
		subs:      make(map[int]func(Entry)),
	}
}

// Session returns the recorder's session id.
func (r *Recorder) Session() string { return r.session }

// PassCompleted records an entry and notifies subscribers.
func (r *Recorder) PassCompleted(report state.PassReport) {
	e := Entry{
		Session:   r.session,
		Report:    report,
		Callbacks: r.callbacks,
		Deferred:  r.deferred,
		Failures:  r.failures,
	}
	r.callbacks, r.deferred, r.failures = 0, 0, 0

	r.mu.Lock()
	r.entries = append(r.entries, e)
	if r.history > 0 && len(r.entries) > r.history {
		over := len(r.entries) - r.history
		r.entries = append(r.entries[:0:0], r.entries[over:]...)
		r.dropped += over
	}
	subs := make([]func(Entry), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	for _, fn := range subs {
		fn(e)
	}
}

// CallbacksRun counts deferred callbacks for the next entry.
func (r *Recorder) CallbacksRun(ran, deferred int) {
	r.callbacks += ran
	r.deferred += deferred
}

// ScopeRecomputed counts failed computations for the next entry.
func (r *Recorder) ScopeRecomputed(_ state.ScopeKind, _ time.Duration, err error) {
	if err != nil {
		r.failures++
	}
}

// Capture stores a snapshot of m. It must be called on m's goroutine.
func (r *Recorder) Capture(m *state.StateManager) {
	snap := m.Snapshot()
	r.mu.Lock()
	r.snapshot = &snap
	r.mu.Unlock()
}

// Entries returns a copy of the recorded entries, oldest first.
func (r *Recorder) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Latest returns the last captured snapshot, or nil.
func (r *Recorder) Latest() *state.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Subscribe registers fn to be called with every new entry and returns a
// function removing it. fn runs on the manager's goroutine and must not block.
func (r *Recorder) Subscribe(fn func(Entry)) (cancel func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// Journal returns the exportable form of everything recorded so far.
func (r *Recorder) Journal() Journal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	return Journal{
		Session:    r.session,
		StartedAt:  r.startedAt,
		ExportedAt: time.Now(),
		Dropped:    r.dropped,
		Entries:    entries,
		Snapshot:   r.snapshot,
	}
}
