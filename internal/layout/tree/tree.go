// Package tree implements the per-workspace BSP layout tree: an arena of
// nodes addressed by index, with no owning pointers inside a node, so the
// structure cannot form a reference cycle and splits/collapses are plain
// index rewrites.
package tree

import "github.com/kvashchenko/windesk/internal/accessport"

// axis names the split orientation using the spec's convention: Horizontal
// divides the rect's width, producing a left child and a right child;
// Vertical divides the rect's height, producing a top child and a bottom
// child.
type axis int

const (
	Horizontal axis = iota
	Vertical
)

func opposite(a axis) axis {
	if a == Horizontal {
		return Vertical
	}
	return Horizontal
}

const nilIdx = -1

type node struct {
	// leaf holds a window id when this node has no children.
	leaf accessport.WindowID
	// isLeaf distinguishes a zero-value WindowID leaf from an unset leaf.
	isLeaf bool

	axis  axis
	ratio float64

	left, right int // arena indices, nilIdx if absent
}

// Tree is a BSP tree over an arena of nodes. The zero value is not usable;
// construct with New.
type Tree struct {
	nodes []node
	root  int
}

// New returns an empty tree (no root).
func New() *Tree {
	return &Tree{root: nilIdx}
}

// Empty reports whether the tree holds no windows.
func (t *Tree) Empty() bool {
	return t.root == nilIdx
}

// InsertLeaf adds id to the tree. If the tree is empty, id becomes the sole
// root leaf. Otherwise it splits the deepest-rightmost leaf (the leaf
// reached by always following "right"), opposite its parent's axis
// (defaulting to Horizontal at the root), ratio 0.5, placing the existing
// occupant on the left and id on the right.
func (t *Tree) InsertLeaf(id accessport.WindowID) {
	if t.Empty() {
		t.root = t.newLeaf(id)
		return
	}

	// deepestRightLeaf's seed axis stands in for "this leaf's parent axis"
	// when the leaf is the root: seeding Vertical makes InsertLeaf split the
	// root with the opposite, Horizontal.
	target, parentAxis := t.deepestRightLeaf(t.root, Vertical)
	splitAxis := opposite(parentAxis)

	existing := t.nodes[target].leaf
	// newLeaf appends to the arena, so take the node pointer only after both
	// children exist.
	l := t.newLeaf(existing)
	r := t.newLeaf(id)

	n := &t.nodes[target]
	n.isLeaf = false
	n.axis = splitAxis
	n.ratio = 0.5
	n.left = l
	n.right = r
}

func (t *Tree) deepestRightLeaf(idx int, inheritedAxis axis) (int, axis) {
	n := &t.nodes[idx]
	if n.isLeaf {
		return idx, inheritedAxis
	}
	return t.deepestRightLeaf(n.right, n.axis)
}

func (t *Tree) newLeaf(id accessport.WindowID) int {
	t.nodes = append(t.nodes, node{leaf: id, isLeaf: true, left: nilIdx, right: nilIdx})
	return len(t.nodes) - 1
}

// RemoveLeaf removes the leaf holding id, if present, collapsing its parent
// by promoting the sibling subtree in the parent's place. Reports whether a
// leaf was found and removed.
func (t *Tree) RemoveLeaf(id accessport.WindowID) bool {
	if t.Empty() {
		return false
	}
	if t.nodes[t.root].isLeaf {
		if t.nodes[t.root].leaf == id {
			t.root = nilIdx
			return true
		}
		return false
	}

	removed, newSubtree := t.removeFrom(t.root, id)
	if removed {
		t.root = newSubtree
	}
	return removed
}

// removeFrom returns (found, replacementIndexForSubtreeRootedAtIdx).
func (t *Tree) removeFrom(idx int, id accessport.WindowID) (bool, int) {
	n := t.nodes[idx]
	if n.isLeaf {
		if n.leaf == id {
			return true, nilIdx
		}
		return false, idx
	}

	if t.nodes[n.left].isLeaf && t.nodes[n.left].leaf == id {
		return true, n.right
	}
	if t.nodes[n.right].isLeaf && t.nodes[n.right].leaf == id {
		return true, n.left
	}

	if found, replacement := t.removeFrom(n.left, id); found {
		t.nodes[idx].left = replacement
		if replacement == nilIdx {
			return true, n.right
		}
		return true, idx
	}
	if found, replacement := t.removeFrom(n.right, id); found {
		t.nodes[idx].right = replacement
		if replacement == nilIdx {
			return true, n.left
		}
		return true, idx
	}
	return false, idx
}

// Equalize sets every split ratio to 0.5.
func (t *Tree) Equalize() {
	if t.Empty() {
		return
	}
	t.equalize(t.root)
}

func (t *Tree) equalize(idx int) {
	n := &t.nodes[idx]
	if n.isLeaf {
		return
	}
	n.ratio = 0.5
	t.equalize(n.left)
	t.equalize(n.right)
}

// FindLeaf reports whether id is present in the tree.
func (t *Tree) FindLeaf(id accessport.WindowID) bool {
	found := false
	t.Walk(func(w accessport.WindowID) {
		if w == id {
			found = true
		}
	})
	return found
}

// Walk visits every window id held in leaves, left to right.
func (t *Tree) Walk(visit func(accessport.WindowID)) {
	if t.Empty() {
		return
	}
	t.walk(t.root, visit)
}

func (t *Tree) walk(idx int, visit func(accessport.WindowID)) {
	n := t.nodes[idx]
	if n.isLeaf {
		visit(n.leaf)
		return
	}
	t.walk(n.left, visit)
	t.walk(n.right, visit)
}

// SwapLeaves exchanges the positions of two windows already present in the
// tree, leaving the tree shape otherwise unchanged.
func (t *Tree) SwapLeaves(a, b accessport.WindowID) {
	t.swap(t.root, a, b)
}

func (t *Tree) swap(idx int, a, b accessport.WindowID) {
	if idx == nilIdx {
		return
	}
	n := &t.nodes[idx]
	if n.isLeaf {
		if n.leaf == a {
			n.leaf = b
		} else if n.leaf == b {
			n.leaf = a
		}
		return
	}
	t.swap(n.left, a, b)
	t.swap(n.right, a, b)
}

// Reconcile brings the tree in line with present, the current authoritative
// set of windows still owned by the workspace: leaves whose window is not
// in present are removed (collapsing their parent), and ids in present not
// yet in the tree are inserted via InsertLeaf, in the order given.
func (t *Tree) Reconcile(present []accessport.WindowID) {
	want := make(map[accessport.WindowID]bool, len(present))
	for _, id := range present {
		want[id] = true
	}

	var stale []accessport.WindowID
	t.Walk(func(id accessport.WindowID) {
		if !want[id] {
			stale = append(stale, id)
		}
	})
	for _, id := range stale {
		t.RemoveLeaf(id)
	}

	have := make(map[accessport.WindowID]bool)
	t.Walk(func(id accessport.WindowID) { have[id] = true })
	for _, id := range present {
		if !have[id] {
			t.InsertLeaf(id)
		}
	}
}

// Layout walks the tree top-down, splitting rect at each branch by ratio
// along axis (inserting innerGap/2 padding on either side of the divider)
// and calling emit at each leaf with a live window.
func (t *Tree) Layout(rect accessport.Rect, innerGap int, emit func(id accessport.WindowID, r accessport.Rect)) {
	if t.Empty() {
		return
	}
	t.layout(t.root, rect, innerGap, emit)
}

func (t *Tree) layout(idx int, rect accessport.Rect, innerGap int, emit func(accessport.WindowID, accessport.Rect)) {
	n := t.nodes[idx]
	if n.isLeaf {
		emit(n.leaf, rect)
		return
	}

	half := innerGap / 2
	if n.axis == Horizontal {
		leftW := int(float64(rect.Width) * n.ratio)
		left := accessport.Rect{X: rect.X, Y: rect.Y, Width: clampNonNeg(leftW - half), Height: rect.Height}
		right := accessport.Rect{
			X:      rect.X + leftW + half,
			Y:      rect.Y,
			Width:  clampNonNeg(rect.Width - leftW - half),
			Height: rect.Height,
		}
		t.layout(n.left, left, innerGap, emit)
		t.layout(n.right, right, innerGap, emit)
		return
	}

	topH := int(float64(rect.Height) * n.ratio)
	top := accessport.Rect{X: rect.X, Y: rect.Y, Width: rect.Width, Height: clampNonNeg(topH - half)}
	bottom := accessport.Rect{
		X:      rect.X,
		Y:      rect.Y + topH + half,
		Width:  rect.Width,
		Height: clampNonNeg(rect.Height - topH - half),
	}
	t.layout(n.left, top, innerGap, emit)
	t.layout(n.right, bottom, innerGap, emit)
}

func clampNonNeg(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
