package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kvashchenko/windesk/internal/accessport"
	"github.com/kvashchenko/windesk/internal/layout/strategy"
	"github.com/kvashchenko/windesk/internal/model"
)

// HandleEvent is the reconciler's single entrypoint into model mutation.
// Every call must come from the model thread; HandleEvent does not lock
// against concurrent callers of itself.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) {
	switch ev.Kind {
	case WindowCreated:
		e.onCreated(ctx, ev)
	case WindowDestroyed:
		e.onDestroyed(ctx, ev)
	case WindowMoved, WindowResized:
		e.onGeometryChanged(ctx, ev)
	case FocusChanged:
		e.onFocusChanged(ev)
	case TitleChanged:
		e.onTitleChanged(ev)
	case AppActivated:
		e.onAppActivated(ctx, ev)
	case ScreenReconfigured:
		e.onScreenReconfigured(ctx, ev)
	}
}

func (e *Engine) onCreated(ctx context.Context, ev Event) {
	m := e.MonitorContaining(ev.Bounds.Center())
	if m == nil {
		return
	}
	ws, ok := m.ActiveWorkspace()
	if !ok {
		return
	}

	node := &model.WindowNode{
		WindowID:           ev.Window,
		PID:                ev.PID,
		Title:              ev.Title,
		IsFloatingOverride: e.cache.Rules().FloatNewWindows,
		LastKnownFrame:     ev.Bounds,
	}
	ws.AddWindow(node)
	e.registry.Assign(ev.Window, ws.ID())

	e.scheduleReflow(ctx, m, ws)
}

func (e *Engine) onDestroyed(ctx context.Context, ev Event) {
	ws, m, ok := e.WorkspaceOwning(ev.Window)
	if !ok {
		return
	}
	ws.RemoveWindow(ev.Window)
	e.registry.Remove(ev.Window)
	e.cache.Invalidate(ev.Window)
	e.cancelReflow(ws.ID())

	e.scheduleReflow(ctx, m, ws)
}

func (e *Engine) onGeometryChanged(ctx context.Context, ev Event) {
	ws, m, ok := e.WorkspaceOwning(ev.Window)
	if !ok {
		return
	}
	ws.MutateWindow(ev.Window, func(n *model.WindowNode) {
		n.LastKnownFrame = ev.Bounds
	})

	if ws.LayoutKind() == strategy.Float || !ws.IsTiled(ev.Window) {
		return
	}
	e.scheduleReflowDebounced(ctx, m, ws, reflowDebounce)
}

func (e *Engine) onFocusChanged(ev Event) {
	ws, _, ok := e.WorkspaceOwning(ev.Window)
	if !ok {
		return
	}
	ws.SetFocused(ev.Window)

	if ws.LayoutKind() != strategy.ZStack {
		return
	}
	h, err := e.port.ResolveHandle(context.Background(), ev.Window)
	if err != nil {
		return
	}
	_ = e.port.Raise(h)
}

func (e *Engine) onTitleChanged(ev Event) {
	ws, _, ok := e.WorkspaceOwning(ev.Window)
	if !ok {
		return
	}
	ws.MutateWindow(ev.Window, func(n *model.WindowNode) {
		n.Title = ev.Title
	})
	e.cache.Invalidate(ev.Window)
}

// onAppActivated switches the owning monitor to a workspace already
// holding a window of ev.PID, preferring one that is already that
// monitor's active workspace.
func (e *Engine) onAppActivated(ctx context.Context, ev Event) {
	for _, m := range e.Monitors() {
		for _, ws := range m.Workspaces() {
			if !hasPID(ws, ev.PID) {
				continue
			}
			if active, ok := m.ActiveWorkspace(); ok && active.ID() == ws.ID() {
				return
			}
			_ = e.SwitchWorkspace(ctx, m, ws.ID())
			return
		}
	}
}

func hasPID(ws *model.Workspace, pid int) bool {
	for _, id := range ws.WindowIDs() {
		if n, ok := ws.FindWindow(id); ok && n.PID == pid {
			return true
		}
	}
	return false
}

// onScreenReconfigured re-enumerates displays, keeps each surviving
// monitor's workspaces attached to it, and re-merges the workspaces of any
// monitor that disappeared onto the first remaining monitor before
// reflowing everywhere.
func (e *Engine) onScreenReconfigured(ctx context.Context, ev Event) {
	displays, err := e.port.Displays(ctx)
	if err != nil {
		return
	}
	live := make(map[model.MonitorID]accessport.Display)
	for _, d := range displays {
		live[model.MonitorID(d.ID)] = d
	}

	var gone []*model.Monitor
	for _, m := range e.Monitors() {
		if d, ok := live[m.ID()]; ok {
			m.SetFrames(d.Bounds, d.Usable)
			continue
		}
		gone = append(gone, m)
	}

	survivors := e.Monitors()
	for _, m := range gone {
		orphaned := e.RemoveMonitor(m.ID())
		survivors = e.Monitors()
		if len(survivors) == 0 {
			break
		}
		for _, ws := range orphaned {
			survivors[0].AdoptWorkspace(ws)
		}
	}

	for _, m := range e.Monitors() {
		for _, ws := range m.Workspaces() {
			_ = e.ApplyTiling(ctx, m, ws)
		}
	}
}

// scheduleReflow runs ApplyTiling immediately (no debounce), used for
// structural changes (create/destroy) where the user expects the result
// right away.
func (e *Engine) scheduleReflow(ctx context.Context, m *model.Monitor, ws *model.Workspace) {
	_ = e.ApplyTiling(ctx, m, ws)
}

// scheduleReflowDebounced coalesces bursts of geometry events (drag-resize)
// into one reflow per workspace, fired delay after the last call. A later
// call for the same workspace id replaces the pending timer rather than
// queuing behind it, mirroring the teacher's preview-timer reset idiom.
func (e *Engine) scheduleReflowDebounced(ctx context.Context, m *model.Monitor, ws *model.Workspace, delay time.Duration) {
	e.reflowMu.Lock()
	defer e.reflowMu.Unlock()

	id := ws.ID()
	if t, ok := e.reflowTimer[id]; ok {
		t.Stop()
	}
	e.reflowTimer[id] = time.AfterFunc(delay, func() {
		e.reflowMu.Lock()
		delete(e.reflowTimer, id)
		e.reflowMu.Unlock()
		_ = e.ApplyTiling(ctx, m, ws)
	})
}

// cancelReflow discards any pending debounced reflow for a workspace, used
// when the workspace is being torn down or its windows fully reassigned.
func (e *Engine) cancelReflow(id uuid.UUID) {
	e.reflowMu.Lock()
	defer e.reflowMu.Unlock()
	if t, ok := e.reflowTimer[id]; ok {
		t.Stop()
		delete(e.reflowTimer, id)
	}
}
