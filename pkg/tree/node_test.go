package tree

import "testing"

func TestInsertChildAfter(t *testing.T) {
	root := New("root")
	a, b, c := New("a"), New("b"), New("c")

	root.InsertChildAfter(nil, b)
	root.InsertChildAfter(nil, a)
	root.InsertChildAfter(b, c)

	if got := root.Hierarchy(); got != "root(a,b,c)" {
		t.Errorf("Hierarchy() = %q, want %q", got, "root(a,b,c)")
	}
	if b.Parent() != root {
		t.Error("b.Parent() should be root")
	}
}

func TestInsertMovesChild(t *testing.T) {
	left, right := New("left"), New("right")
	child := New("child")

	left.InsertChildAfter(nil, child)
	right.InsertChildAfter(nil, child)

	if len(left.Children) != 0 {
		t.Errorf("left still has %d children", len(left.Children))
	}
	if child.Parent() != right {
		t.Error("child should have moved to right")
	}
}

func TestRemoveChild(t *testing.T) {
	root := New("root")
	a, b := New("a"), New("b")
	root.InsertChildAfter(nil, a)
	root.InsertChildAfter(a, b)

	root.RemoveChild(a)
	root.RemoveChild(New("stranger"))
	root.RemoveChild("not a node")

	if got := root.Hierarchy(); got != "root(b)" {
		t.Errorf("Hierarchy() = %q, want %q", got, "root(b)")
	}
	if a.Parent() != nil {
		t.Error("removed child should have no parent")
	}
}

func TestFindAndOutline(t *testing.T) {
	root := New("root")
	first := New("first").Set("count", 3)
	root.InsertChildAfter(nil, first)
	first.InsertChildAfter(nil, New("leaf"))

	if root.Find("leaf") == nil {
		t.Fatal("Find(leaf) = nil")
	}
	if root.Find("missing") != nil {
		t.Error("Find(missing) should be nil")
	}

	want := "root\n  first count=3\n    leaf\n"
	if got := root.Outline(); got != want {
		t.Errorf("Outline() = %q, want %q", got, want)
	}
}

func TestInsertNonNodePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	New("root").InsertChildAfter(nil, 42)
}
