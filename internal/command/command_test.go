package command

import (
	"context"
	"errors"
	"testing"

	"github.com/kvashchenko/windesk/internal/accessport"
	"github.com/kvashchenko/windesk/internal/classify"
	"github.com/kvashchenko/windesk/internal/engine"
	"github.com/kvashchenko/windesk/internal/layout/strategy"
	"github.com/kvashchenko/windesk/internal/model"
	"github.com/kvashchenko/windesk/internal/registry"
)

// fakePort is a minimal accessport.Port that tracks Focus calls and lets
// SetFrame/GetFrame round-trip, enough to exercise the reflow path
// ApplyTiling drives.
type fakePort struct {
	focused accessport.WindowID
}

type fakeHandle accessport.WindowID

func (h fakeHandle) WindowID() accessport.WindowID { return accessport.WindowID(h) }

func (p *fakePort) ListVisibleWindows(context.Context) ([]accessport.WindowSnapshot, error) {
	return nil, nil
}
func (p *fakePort) Displays(context.Context) ([]accessport.Display, error) { return nil, nil }
func (p *fakePort) ResolveHandle(_ context.Context, id accessport.WindowID) (accessport.Handle, error) {
	return fakeHandle(id), nil
}
func (p *fakePort) GetFrame(accessport.Handle) (accessport.Rect, error) { return accessport.Rect{}, nil }
func (p *fakePort) SetFrame(accessport.Handle, accessport.Rect) error   { return nil }
func (p *fakePort) GetAttr(accessport.Handle, accessport.Attr) (any, error) {
	return nil, errors.New("not set")
}
func (p *fakePort) SetAttr(accessport.Handle, accessport.Attr, any) error { return nil }
func (p *fakePort) Focus(h accessport.Handle) error {
	p.focused = h.WindowID()
	return nil
}
func (p *fakePort) Raise(accessport.Handle) error   { return nil }
func (p *fakePort) Minimize(accessport.Handle) error { return nil }
func (p *fakePort) Subscribe(int, accessport.EventMask) (accessport.Subscription, error) {
	return nil, errors.New("not supported")
}
func (p *fakePort) BeginResizeFriendly(accessport.Handle) (func(), error) {
	return func() {}, nil
}

func newTestEngine() (*engine.Engine, *fakePort) {
	port := &fakePort{}
	eng := engine.New(port, registry.New(), classify.NewCache(classify.Rules{}), 2, nil)
	return eng, port
}

// setupWorkspace places windows side by side on the monitor's visible frame so
// directional picking has well-defined geometry to work with.
func setupWorkspace(t *testing.T, eng *engine.Engine) (*model.Monitor, *model.Workspace) {
	t.Helper()
	m := model.NewMonitor(model.MonitorID(0), "primary",
		accessport.Rect{X: 0, Y: 0, Width: 1000, Height: 500},
		accessport.Rect{X: 0, Y: 0, Width: 1000, Height: 500})
	ws := m.CreateWorkspace("main", strategy.HStack, strategy.Gaps{})
	eng.AddMonitor(m)

	left := &model.WindowNode{WindowID: 1, LastKnownFrame: accessport.Rect{X: 0, Y: 0, Width: 400, Height: 500}}
	right := &model.WindowNode{WindowID: 2, LastKnownFrame: accessport.Rect{X: 500, Y: 0, Width: 500, Height: 500}}
	ws.AddWindow(left)
	ws.AddWindow(right)
	ws.SetClassification([]accessport.WindowID{1, 2}, nil)
	ws.SetFocused(1)
	return m, ws
}

func TestFocusDirectionMovesFocusRightward(t *testing.T) {
	eng, port := newTestEngine()
	m, ws := setupWorkspace(t, eng)
	d := New(eng, nil)

	d.FocusDirection(context.Background(), m, ws, Right)

	if port.focused != 2 {
		t.Fatalf("port.focused = %d, want 2", port.focused)
	}
	got, ok := ws.Focused()
	if !ok || got != 2 {
		t.Fatalf("ws.Focused() = (%v,%v), want (2,true)", got, ok)
	}
}

func TestFocusDirectionWrapsWhenNoInDirectionCandidate(t *testing.T) {
	eng, port := newTestEngine()
	m, ws := setupWorkspace(t, eng)
	d := New(eng, nil)

	// Window 2 isn't above window 1 (both share Y=0), so FocusDirection(Up)
	// falls back to the wrap rule: farthest window along the opposite edge.
	// With only one other tileable window, it is always that wrap target.
	d.FocusDirection(context.Background(), m, ws, Up)

	if port.focused != 2 {
		t.Fatalf("port.focused = %d, want 2 (wrap target)", port.focused)
	}
}

func TestFocusDirectionNoOpWithNoOtherTileableWindow(t *testing.T) {
	eng, port := newTestEngine()
	m := model.NewMonitor(model.MonitorID(0), "primary",
		accessport.Rect{X: 0, Y: 0, Width: 1000, Height: 500},
		accessport.Rect{X: 0, Y: 0, Width: 1000, Height: 500})
	ws := m.CreateWorkspace("main", strategy.HStack, strategy.Gaps{})
	eng.AddMonitor(m)
	ws.AddWindow(&model.WindowNode{WindowID: 1, LastKnownFrame: accessport.Rect{X: 0, Y: 0, Width: 1000, Height: 500}})
	ws.SetClassification([]accessport.WindowID{1}, nil)
	ws.SetFocused(1)

	d := New(eng, nil)
	d.FocusDirection(context.Background(), m, ws, Right)

	if port.focused != 0 {
		t.Fatalf("Focus() was called (port.focused = %d) with no other tileable window present", port.focused)
	}
	got, _ := ws.Focused()
	if got != 1 {
		t.Fatalf("Focused() = %v, want unchanged 1", got)
	}
}

func TestSwapDirectionSwapsStackOrder(t *testing.T) {
	eng, _ := newTestEngine()
	m, ws := setupWorkspace(t, eng)
	d := New(eng, nil)

	d.SwapDirection(context.Background(), m, ws, Right)

	ids := ws.WindowIDs()
	if ids[0] != 2 || ids[1] != 1 {
		t.Fatalf("WindowIDs() = %v, want [2 1]", ids)
	}
	// Focus stays on the originally focused window.
	got, _ := ws.Focused()
	if got != 1 {
		t.Fatalf("Focused() = %v, want 1", got)
	}
}

func TestToggleFloatFlipsOverride(t *testing.T) {
	eng, _ := newTestEngine()
	m, ws := setupWorkspace(t, eng)
	d := New(eng, nil)

	d.ToggleFloat(context.Background(), m, ws, 1)

	node, _ := ws.FindWindow(1)
	if !node.IsFloatingOverride {
		t.Fatal("IsFloatingOverride = false after ToggleFloat")
	}
}

func TestToggleFloatNoOpForZeroID(t *testing.T) {
	eng, _ := newTestEngine()
	m, ws := setupWorkspace(t, eng)
	d := New(eng, nil)

	d.ToggleFloat(context.Background(), m, ws, 0)
	node, _ := ws.FindWindow(1)
	if node.IsFloatingOverride {
		t.Fatal("IsFloatingOverride = true after ToggleFloat(0)")
	}
}

func TestEqualizeNoOpOutsideBSP(t *testing.T) {
	eng, _ := newTestEngine()
	m, ws := setupWorkspace(t, eng) // HStack
	d := New(eng, nil)

	// Should not panic and should leave layout kind untouched.
	d.Equalize(context.Background(), m, ws)
	if ws.LayoutKind() != strategy.HStack {
		t.Fatalf("LayoutKind() = %v, want HStack", ws.LayoutKind())
	}
}

func TestMoveFocusedToWorkspaceReassignsOwnership(t *testing.T) {
	eng, _ := newTestEngine()
	m, ws := setupWorkspace(t, eng)
	dest := m.CreateWorkspace("scratch", strategy.HStack, strategy.Gaps{})
	d := New(eng, nil)

	d.MoveFocusedToWorkspace(context.Background(), m, ws, dest.ID().String())

	if ws.HasWindow(1) {
		t.Fatal("source workspace still has window 1")
	}
	if !dest.HasWindow(1) {
		t.Fatal("destination workspace missing window 1")
	}
	owner, ok := eng.Registry().Lookup(1)
	if !ok || owner != dest.ID() {
		t.Fatalf("registry owner = (%v,%v), want (%v,true)", owner, ok, dest.ID())
	}
}

func TestMoveFocusedToWorkspaceNoOpOnInvalidTarget(t *testing.T) {
	eng, _ := newTestEngine()
	m, ws := setupWorkspace(t, eng)
	d := New(eng, nil)

	d.MoveFocusedToWorkspace(context.Background(), m, ws, "not-a-uuid")
	if !ws.HasWindow(1) {
		t.Fatal("window 1 was moved despite an invalid target id")
	}
}

func TestMoveFocusedToWorkspaceNoOpOnSameWorkspace(t *testing.T) {
	eng, _ := newTestEngine()
	m, ws := setupWorkspace(t, eng)
	d := New(eng, nil)

	d.MoveFocusedToWorkspace(context.Background(), m, ws, ws.ID().String())
	if !ws.HasWindow(1) {
		t.Fatal("window 1 was removed when targeting its own workspace")
	}
}

func TestDispatchRoutesUnknownActionWithoutPanicking(t *testing.T) {
	eng, _ := newTestEngine()
	m, ws := setupWorkspace(t, eng)
	d := New(eng, nil)
	_ = ws

	d.Dispatch(context.Background(), m, "not_a_real_action", "")
}

func TestDispatchNoActiveWorkspaceIsNoOp(t *testing.T) {
	eng, _ := newTestEngine()
	m := model.NewMonitor(model.MonitorID(1), "empty", accessport.Rect{}, accessport.Rect{})
	eng.AddMonitor(m)
	d := New(eng, nil)

	// No workspace exists yet; Dispatch must not panic.
	d.Dispatch(context.Background(), m, "focus_direction", "left")
}

func TestParseDirectionDefaultsToRight(t *testing.T) {
	if got := ParseDirection("sideways"); got != Right {
		t.Fatalf("ParseDirection(sideways) = %v, want Right", got)
	}
}
