package model

import (
	"sync"

	"github.com/google/uuid"

	"github.com/kvashchenko/windesk/internal/accessport"
	"github.com/kvashchenko/windesk/internal/layout/strategy"
	"github.com/kvashchenko/windesk/internal/wmerrors"
)

// Monitor owns an ordered sequence of workspaces and tracks which one is
// active. Exactly one monitor exists per detected physical display; it
// never outlives a screen reconfiguration that removes that display.
type Monitor struct {
	mu sync.Mutex

	id   MonitorID
	name string

	fullFrame    accessport.Rect
	visibleFrame accessport.Rect

	workspaces []*Workspace
	active     uuid.UUID
}

// NewMonitor constructs a monitor with no workspaces. Callers must call
// CreateWorkspace at least once before relying on the "≥1 workspace"
// invariant.
func NewMonitor(id MonitorID, name string, full, visible accessport.Rect) *Monitor {
	return &Monitor{id: id, name: name, fullFrame: full, visibleFrame: visible}
}

func (m *Monitor) ID() MonitorID { return m.id }
func (m *Monitor) Name() string  { return m.name }

func (m *Monitor) FullFrame() accessport.Rect {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fullFrame
}

func (m *Monitor) VisibleFrame() accessport.Rect {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visibleFrame
}

// SetFrames updates the monitor's geometry, e.g. after ScreenReconfigured.
func (m *Monitor) SetFrames(full, visible accessport.Rect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fullFrame = full
	m.visibleFrame = visible
}

// CreateWorkspace appends a new workspace and, if this is the monitor's
// first, makes it active.
func (m *Monitor) CreateWorkspace(title string, kind strategy.Kind, gaps strategy.Gaps) *Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws := NewWorkspace(uuid.New(), title, m.id, kind, gaps)
	m.workspaces = append(m.workspaces, ws)
	if m.active == uuid.Nil {
		m.active = ws.id
	}
	return ws
}

// AdoptWorkspace appends an already-constructed workspace (used when
// re-merging workspaces from a disconnected monitor; the engine's
// screen-reconfiguration handler decides where they go).
func (m *Monitor) AdoptWorkspace(ws *Workspace) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workspaces = append(m.workspaces, ws)
	if m.active == uuid.Nil {
		m.active = ws.id
	}
}

// RemoveWorkspace removes the workspace with id, forbidden when it is the
// monitor's only workspace. Its windows are moved (model-level only; the
// caller must update the registry under the registry lock) onto the next
// workspace in order, and the returned ids are exactly those moved.
func (m *Monitor) RemoveWorkspace(id uuid.UUID) ([]accessport.WindowID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.workspaces) <= 1 {
		return nil, wmerrors.ErrLastWorkspace
	}

	idx := m.indexOf(id)
	if idx < 0 {
		return nil, wmerrors.ErrUnknownWorkspace
	}

	removed := m.workspaces[idx]
	target := m.workspaces[(idx+1)%len(m.workspaces)]

	moved := removed.WindowIDs()
	for _, wid := range moved {
		node, ok := removed.FindWindow(wid)
		if !ok {
			continue
		}
		removed.RemoveWindow(wid)
		n := node
		target.AddWindow(&n)
	}

	m.workspaces = append(m.workspaces[:idx], m.workspaces[idx+1:]...)
	if m.active == id {
		m.active = target.id
	}

	return moved, nil
}

func (m *Monitor) indexOf(id uuid.UUID) int {
	for i, ws := range m.workspaces {
		if ws.id == id {
			return i
		}
	}
	return -1
}

// ActivateWorkspace sets the active workspace, a no-op if id is already
// active. Returns wmerrors.ErrUnknownWorkspace if id isn't one of this
// monitor's workspaces.
func (m *Monitor) ActivateWorkspace(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexOf(id) < 0 {
		return wmerrors.ErrUnknownWorkspace
	}
	m.active = id
	return nil
}

// ActivateWorkspaceAt activates the workspace at the given position in
// display order.
func (m *Monitor) ActivateWorkspaceAt(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.workspaces) {
		return wmerrors.ErrUnknownWorkspace
	}
	m.active = m.workspaces[index].id
	return nil
}

// ActiveWorkspace returns the currently active workspace, if any.
func (m *Monitor) ActiveWorkspace() (*Workspace, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.indexOf(m.active)
	if idx < 0 {
		return nil, false
	}
	return m.workspaces[idx], true
}

// NextWorkspace activates the workspace following the current one, wrapping.
func (m *Monitor) NextWorkspace() *Workspace {
	return m.step(1)
}

// PrevWorkspace activates the workspace preceding the current one, wrapping.
func (m *Monitor) PrevWorkspace() *Workspace {
	return m.step(-1)
}

func (m *Monitor) step(delta int) *Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.workspaces) == 0 {
		return nil
	}
	idx := m.indexOf(m.active)
	if idx < 0 {
		idx = 0
	}
	idx = (idx + delta + len(m.workspaces)) % len(m.workspaces)
	m.active = m.workspaces[idx].id
	return m.workspaces[idx]
}

// Workspaces returns the monitor's workspaces in display order.
func (m *Monitor) Workspaces() []*Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Workspace, len(m.workspaces))
	copy(out, m.workspaces)
	return out
}

// FindWorkspace returns the workspace with id, if owned by this monitor.
func (m *Monitor) FindWorkspace(id uuid.UUID) (*Workspace, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.indexOf(id)
	if idx < 0 {
		return nil, false
	}
	return m.workspaces[idx], true
}
