package model

import (
	"sync"

	"github.com/google/uuid"

	"github.com/kvashchenko/windesk/internal/accessport"
	"github.com/kvashchenko/windesk/internal/layout/strategy"
	"github.com/kvashchenko/windesk/internal/layout/tree"
)

// MonitorID is a session-stable identifier for a detected monitor.
type MonitorID int

// Workspace owns a layout tree, the window nodes it holds, and its layout
// policy. All mutating methods must be called with the caller already
// holding any registry lock it needs for a paired update (see
// internal/registry); Workspace never reaches into the registry itself.
type Workspace struct {
	mu sync.Mutex

	id        uuid.UUID
	title     string
	monitorID MonitorID

	layoutKind strategy.Kind
	gaps       strategy.Gaps

	tree  *tree.Tree          // authoritative order/shape for BSP
	order []accessport.WindowID // authoritative order for stack kinds

	windows map[accessport.WindowID]*WindowNode
	tiled   map[accessport.WindowID]bool
	floating map[accessport.WindowID]bool

	focused   accessport.WindowID
	hasFocus  bool
}

// NewWorkspace creates an empty workspace. id should be freshly generated by
// the caller (uuid.New()) for a new workspace, or loaded for a persisted one.
func NewWorkspace(id uuid.UUID, title string, monitorID MonitorID, kind strategy.Kind, gaps strategy.Gaps) *Workspace {
	return &Workspace{
		id:        id,
		title:     title,
		monitorID: monitorID,
		layoutKind: kind,
		gaps:      gaps,
		tree:      tree.New(),
		windows:   make(map[accessport.WindowID]*WindowNode),
		tiled:     make(map[accessport.WindowID]bool),
		floating:  make(map[accessport.WindowID]bool),
	}
}

func (w *Workspace) ID() uuid.UUID        { return w.id }
func (w *Workspace) MonitorID() MonitorID { return w.monitorID }

func (w *Workspace) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}

func (w *Workspace) Rename(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.title = title
}

func (w *Workspace) LayoutKind() strategy.Kind {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.layoutKind
}

// SetLayout swaps the active strategy. The caller is responsible for
// triggering a reflow afterward.
func (w *Workspace) SetLayout(kind strategy.Kind) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.layoutKind = kind
}

func (w *Workspace) Gaps() strategy.Gaps {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gaps
}

func (w *Workspace) SetGaps(g strategy.Gaps) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gaps = g
}

// HasWindow reports whether id is already owned by this workspace, without
// touching the registry.
func (w *Workspace) HasWindow(id accessport.WindowID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.windows[id]
	return ok
}

// AddWindow inserts a new node for id. No-op if already present. Appends to
// the stack order and to the BSP tree so whichever strategy is active has
// a consistent view.
func (w *Workspace) AddWindow(node *WindowNode) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.windows[node.WindowID]; ok {
		return
	}
	w.windows[node.WindowID] = node
	w.order = append(w.order, node.WindowID)
	w.tree.InsertLeaf(node.WindowID)
}

// RemoveWindow drops id from this workspace's tree, order, and node map.
// Reports whether it was present.
func (w *Workspace) RemoveWindow(id accessport.WindowID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.windows[id]; !ok {
		return false
	}
	delete(w.windows, id)
	delete(w.tiled, id)
	delete(w.floating, id)
	if w.hasFocus && w.focused == id {
		w.hasFocus = false
	}
	w.tree.RemoveLeaf(id)
	for i, wid := range w.order {
		if wid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return true
}

// FindWindow returns a copy of the node for id, if present.
func (w *Workspace) FindWindow(id accessport.WindowID) (WindowNode, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, ok := w.windows[id]
	if !ok {
		return WindowNode{}, false
	}
	return n.Clone(), true
}

// MutateWindow runs fn with exclusive access to the live node for id, for
// in-place updates (frame, title, override) that must not race a concurrent
// AddWindow/RemoveWindow. Reports whether id was present.
func (w *Workspace) MutateWindow(id accessport.WindowID, fn func(*WindowNode)) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, ok := w.windows[id]
	if !ok {
		return false
	}
	fn(n)
	return true
}

// WindowIDs returns every window id owned by this workspace, in stack
// registration order (also the BSP insertion order).
func (w *Workspace) WindowIDs() []accessport.WindowID {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]accessport.WindowID, len(w.order))
	copy(out, w.order)
	return out
}

// SetClassification records the tiled/floating partition computed for the
// current reflow.
func (w *Workspace) SetClassification(tiled, floating []accessport.WindowID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tiled = make(map[accessport.WindowID]bool, len(tiled))
	for _, id := range tiled {
		w.tiled[id] = true
	}
	w.floating = make(map[accessport.WindowID]bool, len(floating))
	for _, id := range floating {
		w.floating[id] = true
	}
}

// IsTiled reports the workspace's last-computed classification for id.
func (w *Workspace) IsTiled(id accessport.WindowID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tiled[id]
}

// SwapOrder exchanges a and b's positions in the stack order list, used by
// SwapDirection under a non-BSP layout. No-op if either id is absent.
func (w *Workspace) SwapOrder(a, b accessport.WindowID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ia, ib := -1, -1
	for i, id := range w.order {
		switch id {
		case a:
			ia = i
		case b:
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return
	}
	w.order[ia], w.order[ib] = w.order[ib], w.order[ia]
}

// SetFocused records id as the window last observed to have input focus in
// this workspace.
func (w *Workspace) SetFocused(id accessport.WindowID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focused = id
	w.hasFocus = true
}

// Focused returns the last-known focused window, if any.
func (w *Workspace) Focused() (accessport.WindowID, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused, w.hasFocus
}

// Tree exposes the BSP tree for strategy.Compute and for command-layer
// operations (SwapLeaves, Equalize) that mutate tree shape directly. Callers
// must hold no other lock while calling tree methods; Workspace does not
// guard tree access internally beyond what's already serialized by the
// model/event loop owning all mutation.
func (w *Workspace) Tree() *tree.Tree {
	return w.tree
}

// ReconcileTree brings the BSP tree back in line with the windows currently
// owned by the workspace (used after classification changes which windows
// participate in BSP).
func (w *Workspace) ReconcileTree(present []accessport.WindowID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tree.Reconcile(present)
}
