// Package demo drives a small node tree through the state runtime. The CLI
// uses it to show the runtime at work and to feed the inspector.
package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/vango-dev/incremental/pkg/state"
	"github.com/vango-dev/incremental/pkg/tree"
)

// historySize is the number of recent counts kept in the summary.
const historySize = 5

// Frame is the outcome of one demo frame.
type Frame struct {
	Pass      uint64 `json:"pass"`
	Count     int    `json:"count"`
	Modified  int    `json:"modified"`
	Hierarchy string `json:"hierarchy"`
	Summary   string `json:"summary"`
}

// Scene is a root node whose children are attached according to a counter.
// "first" sits before "second" while the counter is below 20, is absent
// from 20 to 39, and sits after "second" from 40 on. The counter advances
// by step in a deferred callback every frame and wraps at 60.
type Scene struct {
	m       *state.StateManager
	step    int
	count   *state.MutableState[int]
	frames  *state.MutableState[int]
	history *state.ArrayState[int]
	root    *state.NodeState[*tree.Node]
	summary *state.ComputableState[string]
}

// New builds the scene on m.
func New(m *state.StateManager, step int) *Scene {
	s := &Scene{m: m, step: step}
	s.count = state.Named(m, "count", func() int { return 0 })
	s.frames = state.Named(m, "frames", func() int { return 0 })
	s.history = state.Array(m, []int{0})
	s.root = state.UpdatableNode(m, tree.New("root"), s.render)
	s.summary = state.Computable(m, func(ctx *state.Context) string {
		return fmt.Sprintf("count=%d recent=[%s]", s.count.Value(), s.history.Join(" "))
	})
	return s
}

func (s *Scene) render(ctx *state.Context) {
	n := s.count.Value()
	if n < 20 {
		s.first(ctx)
	}
	state.Attach(ctx, 2,
		func() *tree.Node { return tree.New("second") },
		func(ctx *state.Context) {
			node, _ := state.NodeOf[*tree.Node](ctx)
			node.Set("bucket", bucketLabel(ctx, s.count.Value()/10))
		},
		nil,
	)
	if n >= 40 {
		s.first(ctx)
	}
}

func (s *Scene) first(ctx *state.Context) {
	state.Attach(ctx, 1, func() *tree.Node { return tree.New("first") }, nil, nil)
}

// bucketLabel formats the bucket once per distinct value.
func bucketLabel(ctx *state.Context, bucket int) string {
	ms := state.Scope[string](ctx, 1, 1)
	p := state.Param(ms, 0, bucket)
	if ms.Unchanged() {
		return ms.Cached()
	}
	return ms.Recache(fmt.Sprintf("bucket-%d", p.Value()))
}

func (s *Scene) advance() {
	next := (s.count.Peek() + s.step) % 60
	s.count.Set(next)
	s.frames.Update(func(n int) int { return n + 1 })
	if s.history.Push(next) > historySize {
		s.history.Shift()
	}
}

// Frame runs one update pass, reads the tree and the summary, and
// schedules the counter advance for the next frame.
func (s *Scene) Frame() (Frame, error) {
	modified := state.RunUpdatePass(true, s.m)
	root, err := s.root.Result()
	if err != nil {
		return Frame{}, err
	}
	summary, err := s.summary.Result()
	if err != nil {
		return Frame{}, err
	}
	s.m.ScheduleCallback(s.advance)
	return Frame{
		Pass:      s.m.Pass(),
		Count:     s.count.Peek(),
		Modified:  modified,
		Hierarchy: root.Hierarchy(),
		Summary:   summary,
	}, nil
}

// Root returns the root node.
func (s *Scene) Root() *tree.Node { return s.root.Node() }

// Close disposes the scene's computations.
func (s *Scene) Close() {
	s.summary.Dispose()
	s.root.Dispose()
}

// Run calls Frame every interval until frames have run or ctx is done.
// frames <= 0 runs until ctx is done. onFrame is called after each frame.
func (s *Scene) Run(ctx context.Context, frames int, interval time.Duration, onFrame func(Frame)) error {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for i := 0; frames <= 0 || i < frames; i++ {
		if i > 0 && tick != nil {
			select {
			case <-ctx.Done():
			case <-tick:
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		f, err := s.Frame()
		if err != nil {
			return err
		}
		if onFrame != nil {
			onFrame(f)
		}
	}
	return nil
}
