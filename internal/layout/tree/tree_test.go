package tree

import (
	"testing"

	"github.com/kvashchenko/windesk/internal/accessport"
)

func collect(t *Tree) []accessport.WindowID {
	var out []accessport.WindowID
	t.Walk(func(id accessport.WindowID) { out = append(out, id) })
	return out
}

func TestNewTreeIsEmpty(t *testing.T) {
	tr := New()
	if !tr.Empty() {
		t.Fatal("Empty() = false for a fresh tree")
	}
	if tr.FindLeaf(1) {
		t.Fatal("FindLeaf(1) = true on empty tree")
	}
}

func TestInsertLeafFirstBecomesRoot(t *testing.T) {
	tr := New()
	tr.InsertLeaf(1)
	if tr.Empty() {
		t.Fatal("Empty() = true after first InsertLeaf")
	}
	if !tr.FindLeaf(1) {
		t.Fatal("FindLeaf(1) = false after inserting it")
	}
	if got := collect(tr); len(got) != 1 || got[0] != 1 {
		t.Fatalf("Walk() = %v, want [1]", got)
	}
}

func TestInsertLeafSplitsDeepestRightLeaf(t *testing.T) {
	tr := New()
	tr.InsertLeaf(1)
	tr.InsertLeaf(2)
	tr.InsertLeaf(3)

	// Each insert splits the rightmost leaf, so walk order is 1, 2, 3.
	got := collect(tr)
	want := []accessport.WindowID{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Walk() = %v, want %v", got, want)
		}
	}
}

func TestRemoveLeafOfSoleRootEmptiesTree(t *testing.T) {
	tr := New()
	tr.InsertLeaf(1)
	if !tr.RemoveLeaf(1) {
		t.Fatal("RemoveLeaf(1) = false, want true")
	}
	if !tr.Empty() {
		t.Fatal("Empty() = false after removing the only leaf")
	}
}

func TestRemoveLeafOfAbsentIDReturnsFalse(t *testing.T) {
	tr := New()
	tr.InsertLeaf(1)
	if tr.RemoveLeaf(99) {
		t.Fatal("RemoveLeaf(99) = true for an id never inserted")
	}
	if !tr.FindLeaf(1) {
		t.Fatal("FindLeaf(1) = false after an unrelated failed removal")
	}
}

func TestRemoveLeafCollapsesParentPromotingSibling(t *testing.T) {
	tr := New()
	tr.InsertLeaf(1)
	tr.InsertLeaf(2)
	tr.InsertLeaf(3)

	if !tr.RemoveLeaf(2) {
		t.Fatal("RemoveLeaf(2) = false, want true")
	}
	if tr.FindLeaf(2) {
		t.Fatal("FindLeaf(2) = true after removal")
	}
	got := collect(tr)
	want := []accessport.WindowID{1, 3}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Walk() = %v, want %v", got, want)
	}
}

func TestRemoveLeafOnEmptyTreeReturnsFalse(t *testing.T) {
	tr := New()
	if tr.RemoveLeaf(1) {
		t.Fatal("RemoveLeaf on empty tree = true, want false")
	}
}

func TestSwapLeavesExchangesWindowIDsNotShape(t *testing.T) {
	tr := New()
	tr.InsertLeaf(1)
	tr.InsertLeaf(2)
	tr.InsertLeaf(3)

	tr.SwapLeaves(1, 3)
	got := collect(tr)
	want := []accessport.WindowID{3, 2, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Walk() after swap = %v, want %v", got, want)
		}
	}
}

func TestSwapLeavesNoOpWhenNeitherPresent(t *testing.T) {
	tr := New()
	tr.InsertLeaf(1)
	tr.SwapLeaves(5, 6)
	if got := collect(tr); len(got) != 1 || got[0] != 1 {
		t.Fatalf("Walk() = %v, want [1] unchanged", got)
	}
}

func TestReconcileInsertsMissingAndRemovesStale(t *testing.T) {
	tr := New()
	tr.InsertLeaf(1)
	tr.InsertLeaf(2)

	tr.Reconcile([]accessport.WindowID{2, 3})

	if tr.FindLeaf(1) {
		t.Fatal("FindLeaf(1) = true after Reconcile dropped it")
	}
	if !tr.FindLeaf(2) || !tr.FindLeaf(3) {
		t.Fatal("Reconcile should retain 2 and add 3")
	}
}

func TestReconcileOnEmptyTreeInsertsAllPresent(t *testing.T) {
	tr := New()
	tr.Reconcile([]accessport.WindowID{1, 2})
	if !tr.FindLeaf(1) || !tr.FindLeaf(2) {
		t.Fatal("Reconcile on empty tree did not insert all present ids")
	}
}

func TestReconcileToEmptySetEmptiesTree(t *testing.T) {
	tr := New()
	tr.InsertLeaf(1)
	tr.Reconcile(nil)
	if !tr.Empty() {
		t.Fatal("Empty() = false after reconciling to an empty present set")
	}
}

func TestEqualizeResetsRatiosWithoutChangingMembership(t *testing.T) {
	tr := New()
	tr.InsertLeaf(1)
	tr.InsertLeaf(2)
	tr.Equalize() // should not panic, and should leave windows unchanged
	got := collect(tr)
	if len(got) != 2 {
		t.Fatalf("Walk() after Equalize = %v, want 2 entries", got)
	}
}

func TestEqualizeOnEmptyTreeIsNoOp(t *testing.T) {
	tr := New()
	tr.Equalize()
	if !tr.Empty() {
		t.Fatal("Equalize on empty tree should not create a root")
	}
}

func TestLayoutSingleLeafGetsWholeRect(t *testing.T) {
	tr := New()
	tr.InsertLeaf(1)

	rect := accessport.Rect{X: 0, Y: 0, Width: 1000, Height: 800}
	var gotID accessport.WindowID
	var gotRect accessport.Rect
	tr.Layout(rect, 0, func(id accessport.WindowID, r accessport.Rect) {
		gotID, gotRect = id, r
	})
	if gotID != 1 || gotRect != rect {
		t.Fatalf("Layout() = (%v,%+v), want (1,%+v)", gotID, gotRect, rect)
	}
}

func TestLayoutSplitsHorizontallyAtRootByDefault(t *testing.T) {
	tr := New()
	tr.InsertLeaf(1)
	tr.InsertLeaf(2)

	rect := accessport.Rect{X: 0, Y: 0, Width: 1000, Height: 800}
	rects := map[accessport.WindowID]accessport.Rect{}
	tr.Layout(rect, 0, func(id accessport.WindowID, r accessport.Rect) { rects[id] = r })

	if len(rects) != 2 {
		t.Fatalf("got %d leaves, want 2", len(rects))
	}
	// The root splits Horizontal (left/right), each half width with full height.
	for _, r := range rects {
		if r.Height != rect.Height {
			t.Fatalf("leaf height = %d, want full %d", r.Height, rect.Height)
		}
		if r.Width != 500 {
			t.Fatalf("leaf width = %d, want 500", r.Width)
		}
	}
}

func TestLayoutAppliesInnerGapBetweenSiblings(t *testing.T) {
	tr := New()
	tr.InsertLeaf(1)
	tr.InsertLeaf(2)

	rect := accessport.Rect{X: 0, Y: 0, Width: 1000, Height: 800}
	rects := map[accessport.WindowID]accessport.Rect{}
	tr.Layout(rect, 20, func(id accessport.WindowID, r accessport.Rect) { rects[id] = r })

	total := rects[1].Width + rects[2].Width
	if total != 1000-20 {
		t.Fatalf("combined width with gap = %d, want %d", total, 1000-20)
	}
}

func TestLayoutOnEmptyTreeEmitsNothing(t *testing.T) {
	tr := New()
	called := false
	tr.Layout(accessport.Rect{Width: 100, Height: 100}, 0, func(accessport.WindowID, accessport.Rect) {
		called = true
	})
	if called {
		t.Fatal("Layout emitted on an empty tree")
	}
}
