package state

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/incremental/pkg/tree"
)

func newNode(name string) func() *tree.Node {
	return func() *tree.Node { return tree.New(name) }
}

func TestSimpleTreeFollowsCallOrder(t *testing.T) {
	m := NewStateManager()
	count := Mutable(m, 0)
	root := UpdatableNode(m, tree.New("root"), func(ctx *Context) {
		n := count.Value()
		if n < 20 {
			Attach(ctx, 1, newNode("first"), nil, nil)
		}
		Attach(ctx, 2, newNode("second"), nil, nil)
		if n >= 40 {
			Attach(ctx, 1, newNode("first"), nil, nil)
		}
	})

	steps := []struct {
		count int
		want  string
	}{
		{0, "root(first,second)"},
		{30, "root(second)"},
		{50, "root(second,first)"},
		{45, "root(second,first)"},
		{10, "root(first,second)"},
	}

	for _, step := range steps {
		count.Set(step.count)
		RunUpdatePass(true, m)
		if got := root.Value().Hierarchy(); got != step.want {
			t.Errorf("count=%d: hierarchy = %q, want %q", step.count, got, step.want)
		}
	}
}

func TestAttachLifecycle(t *testing.T) {
	m := NewStateManager()
	show := Mutable(m, true)
	tick := Mutable(m, 0)
	var log []string
	nodeName := func(ctx *Context) string {
		if n, ok := NodeOf[*tree.Node](ctx); ok {
			return n.Name
		}
		return "<nil>"
	}
	child := func(ctx *Context, id int, name string, body func(*Context)) {
		Attach(ctx, id, func() *tree.Node {
			log = append(log, "create "+name+" node="+nodeName(ctx))
			return tree.New(name)
		}, func(ctx *Context) {
			log = append(log, "update "+nodeName(ctx))
			if body != nil {
				body(ctx)
			}
		}, func(ctx *Context) {
			log = append(log, "detach "+nodeName(ctx))
		})
	}

	root := UpdatableNode(m, tree.New("root"), func(ctx *Context) {
		tick.Value()
		if show.Value() {
			child(ctx, 1, "a", func(ctx *Context) {
				child(ctx, 11, "a1", nil)
			})
		}
		child(ctx, 2, "b", nil)
	})

	check := func(step string, want []string, hierarchy string) {
		t.Helper()
		log = nil
		RunUpdatePass(false, m)
		if got := root.Value().Hierarchy(); got != hierarchy {
			t.Errorf("%s: hierarchy = %q, want %q", step, got, hierarchy)
		}
		if diff := cmp.Diff(want, log); diff != "" {
			t.Errorf("%s: callbacks mismatch (-want +got):\n%s", step, diff)
		}
	}

	check("initial", []string{
		"create a node=<nil>", "update a",
		"create a1 node=<nil>", "update a1",
		"create b node=<nil>", "update b",
	}, "root(a(a1),b)")

	tick.Set(1)
	check("revisit", []string{"update a", "update a1", "update b"}, "root(a(a1),b)")

	show.Set(false)
	check("remove", []string{"detach a1", "detach a", "update b"}, "root(b)")

	show.Set(true)
	check("re-add", []string{
		"update b",
		"create a node=<nil>", "update a",
		"create a1 node=<nil>", "update a1",
	}, "root(a(a1),b)")

	log = nil
	root.Dispose()
	if diff := cmp.Diff([]string{"detach a1", "detach a", "detach b"}, log); diff != "" {
		t.Errorf("dispose callbacks mismatch (-want +got):\n%s", diff)
	}
	if got := root.Node().Hierarchy(); got != "root" {
		t.Errorf("hierarchy after dispose = %q, want root", got)
	}
}

func TestReplacedBranchDetachesBeforeCreate(t *testing.T) {
	m := NewStateManager()
	useA := Mutable(m, true)
	var log []string
	child := func(ctx *Context, id int, name string, body func(*Context)) {
		Attach(ctx, id, func() *tree.Node {
			log = append(log, "create "+name)
			return tree.New(name)
		}, func(ctx *Context) {
			log = append(log, "update "+name)
			if body != nil {
				body(ctx)
			}
		}, func(*Context) {
			log = append(log, "detach "+name)
		})
	}
	root := UpdatableNode(m, tree.New("root"), func(ctx *Context) {
		if useA.Value() {
			child(ctx, 1, "a", func(ctx *Context) {
				child(ctx, 11, "a1", nil)
			})
		} else {
			child(ctx, 3, "b", nil)
		}
		child(ctx, 2, "c", nil)
	})

	tests := []struct {
		name      string
		useA      bool
		want      []string
		hierarchy string
	}{
		{
			name:      "initial",
			useA:      true,
			want:      []string{"create a", "update a", "create a1", "update a1", "create c", "update c"},
			hierarchy: "root(a(a1),c)",
		},
		{
			name:      "swap to b",
			useA:      false,
			want:      []string{"detach a1", "detach a", "update c", "create b", "update b"},
			hierarchy: "root(b,c)",
		},
		{
			name:      "swap back",
			useA:      true,
			want:      []string{"detach b", "update c", "create a", "update a", "create a1", "update a1"},
			hierarchy: "root(a(a1),c)",
		},
	}

	for _, tt := range tests {
		log = nil
		useA.Set(tt.useA)
		RunUpdatePass(false, m)
		if diff := cmp.Diff(tt.want, log); diff != "" {
			t.Errorf("%s: callbacks mismatch (-want +got):\n%s", tt.name, diff)
		}
		if got := root.Value().Hierarchy(); got != tt.hierarchy {
			t.Errorf("%s: hierarchy = %q, want %q", tt.name, got, tt.hierarchy)
		}
	}
}

func TestDuplicateAttachIDs(t *testing.T) {
	t.Skip("reusing an Attach or Compute id within one run is unsupported: each call opens its own child")
}

func TestAttachThroughComputeKeepsOrder(t *testing.T) {
	m := NewStateManager()
	tick := Mutable(m, 0)
	root := UpdatableNode(m, tree.New("root"), func(ctx *Context) {
		Attach(ctx, 1, newNode("a"), nil, nil)
		Compute(ctx, 5, func(ctx *Context) int {
			Attach(ctx, 2, newNode("b"), nil, nil)
			return 0
		})
		if tick.Value() > 0 {
			Attach(ctx, 4, newNode("d"), nil, nil)
		}
		Attach(ctx, 3, newNode("c"), nil, nil)
	})

	if got := root.Value().Hierarchy(); got != "root(a,b,c)" {
		t.Fatalf("hierarchy = %q, want root(a,b,c)", got)
	}

	tick.Set(1)
	m.UpdateSnapshot()
	if got := root.Value().Hierarchy(); got != "root(a,b,d,c)" {
		t.Errorf("hierarchy = %q, want root(a,b,d,c)", got)
	}
}

func TestAttachOutsideUpdatableNode(t *testing.T) {
	m := NewStateManager()
	c := Computable(m, func(ctx *Context) int {
		Attach(ctx, 1, newNode("x"), nil, nil)
		return 0
	})

	if _, err := c.Result(); !errors.Is(err, ErrIllegalNesting) {
		t.Errorf("Result() error = %v, want ErrIllegalNesting", err)
	}
}

func TestAttachInsideCreateFails(t *testing.T) {
	m := NewStateManager()
	root := UpdatableNode(m, tree.New("root"), func(ctx *Context) {
		Attach(ctx, 1, func() *tree.Node {
			Attach(ctx, 2, newNode("nested"), nil, nil)
			return tree.New("x")
		}, nil, nil)
	})

	if _, err := root.Result(); !errors.Is(err, ErrIllegalNesting) {
		t.Errorf("Result() error = %v, want ErrIllegalNesting", err)
	}
}

func TestUpdatableNodeBindsNode(t *testing.T) {
	m := NewStateManager()
	var seen *tree.Node
	root := tree.New("root")
	n := UpdatableNode(m, root, func(ctx *Context) {
		seen, _ = NodeOf[*tree.Node](ctx)
	})

	if n.Value() != root {
		t.Error("Value() should return the node")
	}
	if seen != root {
		t.Error("updater should run with its node bound")
	}
	if n.Modified() {
		t.Error("node identity did not change")
	}
}
