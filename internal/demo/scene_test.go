package demo

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/incremental/pkg/state"
)

func TestSceneFrames(t *testing.T) {
	m := state.NewStateManager()
	s := New(m, 10)
	defer s.Close()

	var got []Frame
	for i := 0; i < 8; i++ {
		f, err := s.Frame()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		f.Summary = ""
		got = append(got, f)
	}

	want := []Frame{
		{Pass: 1, Count: 0, Modified: 0, Hierarchy: "root(first,second)"},
		{Pass: 2, Count: 10, Modified: 3, Hierarchy: "root(first,second)"},
		{Pass: 3, Count: 20, Modified: 3, Hierarchy: "root(second)"},
		{Pass: 4, Count: 30, Modified: 3, Hierarchy: "root(second)"},
		{Pass: 5, Count: 40, Modified: 3, Hierarchy: "root(second,first)"},
		{Pass: 6, Count: 50, Modified: 3, Hierarchy: "root(second,first)"},
		{Pass: 7, Count: 0, Modified: 3, Hierarchy: "root(first,second)"},
		{Pass: 8, Count: 10, Modified: 3, Hierarchy: "root(first,second)"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestSceneSummaryKeepsRecentCounts(t *testing.T) {
	m := state.NewStateManager()
	s := New(m, 10)
	defer s.Close()

	var last Frame
	for i := 0; i < 7; i++ {
		f, err := s.Frame()
		if err != nil {
			t.Fatal(err)
		}
		last = f
	}
	if want := "count=0 recent=[20 30 40 50 0]"; last.Summary != want {
		t.Errorf("summary = %q, want %q", last.Summary, want)
	}
	if got := state.ValueBy[int](m, "frames"); got != 6 {
		t.Errorf("frames = %d, want 6", got)
	}
}

func TestSceneSecondNodeCarriesBucket(t *testing.T) {
	m := state.NewStateManager()
	s := New(m, 10)
	defer s.Close()

	for i := 0; i < 3; i++ {
		if _, err := s.Frame(); err != nil {
			t.Fatal(err)
		}
	}
	second := s.Root().Find("second")
	if second == nil {
		t.Fatal("second node missing")
	}
	if got := second.Props["bucket"]; got != "bucket-2" {
		t.Errorf("bucket = %v, want bucket-2", got)
	}
}

func TestRunStopsAfterFrames(t *testing.T) {
	m := state.NewStateManager()
	s := New(m, 5)
	defer s.Close()

	var seen []int
	err := s.Run(context.Background(), 4, time.Millisecond, func(f Frame) {
		seen = append(seen, f.Count)
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if diff := cmp.Diff([]int{0, 5, 10, 15}, seen); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	m := state.NewStateManager()
	s := New(m, 1)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	frames := 0
	err := s.Run(ctx, 0, time.Millisecond, func(Frame) {
		frames++
		if frames == 3 {
			cancel()
		}
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if frames != 3 {
		t.Errorf("frames = %d, want 3", frames)
	}
}
