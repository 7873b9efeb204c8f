package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/kvashchenko/windesk/internal/accessport"
	"github.com/kvashchenko/windesk/internal/layout/strategy"
	"github.com/kvashchenko/windesk/internal/model"
)

const defaultFloatWidth, defaultFloatHeight = 800, 600

// SwitchWorkspace runs the six-step workspace-switch protocol on m: hide
// prev-only windows to the sentinel point, activate next, restore or
// center-and-raise next's floating windows, then reflow next. prev's
// pending operations are awaited before next's are enqueued so no window
// is observed half-updated.
func (e *Engine) SwitchWorkspace(ctx context.Context, m *model.Monitor, next uuid.UUID) error {
	prev, ok := m.ActiveWorkspace()
	if ok && prev.ID() == next {
		return nil
	}

	if ok {
		if err := e.hideExclusive(ctx, prev, next); err != nil {
			return err
		}
	}

	if err := m.ActivateWorkspace(next); err != nil {
		return err
	}
	nextWS, ok := m.FindWorkspace(next)
	if !ok {
		return nil
	}

	e.restoreFloating(nextWS, m)

	return e.ApplyTiling(ctx, m, nextWS)
}

// hideExclusive saves and sentinels every window prev owns that next does
// not, so the switch leaves no window rendered in the wrong workspace.
func (e *Engine) hideExclusive(ctx context.Context, prev *model.Workspace, next uuid.UUID) error {
	for _, id := range prev.WindowIDs() {
		if ownerWS, _, ok := e.WorkspaceOwning(id); ok && ownerWS.ID() == next {
			continue
		}
		h, err := e.port.ResolveHandle(ctx, id)
		if err != nil {
			continue
		}
		frame, err := e.port.GetFrame(h)
		if err != nil {
			continue
		}
		sentinel := accessport.Rect{X: model.SentinelX, Y: model.SentinelY, Width: frame.Width, Height: frame.Height}
		prev.MutateWindow(id, func(n *model.WindowNode) {
			saved := frame
			n.SavedFrame = &saved
			n.LastKnownFrame = sentinel
		})
		if err := e.port.SetFrame(h, sentinel); err != nil {
			e.handlePortErr(err)
		}
	}
	return nil
}

// restoreFloating brings next's floating windows back from wherever they
// were hidden, or centers genuinely new ones, then raises them. Tiled
// windows are left to ApplyTiling.
func (e *Engine) restoreFloating(ws *model.Workspace, m *model.Monitor) {
	for _, id := range ws.WindowIDs() {
		node, ok := ws.FindWindow(id)
		if !ok || ws.IsTiled(id) {
			continue
		}
		h, err := e.port.ResolveHandle(context.Background(), id)
		if err != nil {
			continue
		}

		target := node.SavedFrame
		if target == nil {
			visible := m.VisibleFrame()
			target = &accessport.Rect{
				X:      visible.X + (visible.Width-defaultFloatWidth)/2,
				Y:      visible.Y + (visible.Height-defaultFloatHeight)/2,
				Width:  defaultFloatWidth,
				Height: defaultFloatHeight,
			}
		}

		if err := e.port.SetFrame(h, *target); err != nil {
			e.handlePortErr(err)
			continue
		}
		ws.MutateWindow(id, func(n *model.WindowNode) {
			n.LastKnownFrame = *target
			n.SavedFrame = nil
		})
		_ = e.port.Raise(h)
	}
}

// CycleLayout advances ws to the next layout kind in the fixed cycling
// order and reflows.
func (e *Engine) CycleLayout(ctx context.Context, m *model.Monitor, ws *model.Workspace) error {
	ws.SetLayout(ws.LayoutKind().Next())
	return e.ApplyTiling(ctx, m, ws)
}

// SetLayout pins ws to kind and reflows.
func (e *Engine) SetLayout(ctx context.Context, m *model.Monitor, ws *model.Workspace, kind strategy.Kind) error {
	ws.SetLayout(kind)
	return e.ApplyTiling(ctx, m, ws)
}
