package model

import (
	"testing"

	"github.com/google/uuid"

	"github.com/kvashchenko/windesk/internal/accessport"
	"github.com/kvashchenko/windesk/internal/layout/strategy"
)

func newTestMonitor() *Monitor {
	full := accessport.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	visible := accessport.Rect{X: 0, Y: 0, Width: 1920, Height: 1040}
	return NewMonitor(MonitorID(0), "primary", full, visible)
}

func TestCreateWorkspaceActivatesTheFirstOne(t *testing.T) {
	m := newTestMonitor()
	ws := m.CreateWorkspace("main", strategy.BSP, strategy.Gaps{})

	active, ok := m.ActiveWorkspace()
	if !ok {
		t.Fatal("ActiveWorkspace() ok = false after first CreateWorkspace")
	}
	if active.ID() != ws.ID() {
		t.Fatalf("ActiveWorkspace() = %v, want %v", active.ID(), ws.ID())
	}
}

func TestCreateWorkspaceDoesNotReplaceActiveWorkspace(t *testing.T) {
	m := newTestMonitor()
	first := m.CreateWorkspace("one", strategy.BSP, strategy.Gaps{})
	m.CreateWorkspace("two", strategy.BSP, strategy.Gaps{})

	active, _ := m.ActiveWorkspace()
	if active.ID() != first.ID() {
		t.Fatalf("ActiveWorkspace() = %v, want first workspace %v", active.ID(), first.ID())
	}
}

func TestActivateWorkspaceSwitchesActive(t *testing.T) {
	m := newTestMonitor()
	m.CreateWorkspace("one", strategy.BSP, strategy.Gaps{})
	second := m.CreateWorkspace("two", strategy.BSP, strategy.Gaps{})

	if err := m.ActivateWorkspace(second.ID()); err != nil {
		t.Fatalf("ActivateWorkspace() error: %v", err)
	}
	active, _ := m.ActiveWorkspace()
	if active.ID() != second.ID() {
		t.Fatalf("ActiveWorkspace() = %v, want %v", active.ID(), second.ID())
	}
}

func TestActivateWorkspaceUnknownIDReturnsError(t *testing.T) {
	m := newTestMonitor()
	m.CreateWorkspace("one", strategy.BSP, strategy.Gaps{})
	if err := m.ActivateWorkspace(uuid.New()); err == nil {
		t.Fatal("ActivateWorkspace() error = nil, want non-nil for unknown id")
	}
}

func TestNextAndPrevWorkspaceWrapAround(t *testing.T) {
	m := newTestMonitor()
	a := m.CreateWorkspace("a", strategy.BSP, strategy.Gaps{})
	b := m.CreateWorkspace("b", strategy.BSP, strategy.Gaps{})

	next := m.NextWorkspace()
	if next.ID() != b.ID() {
		t.Fatalf("NextWorkspace() = %v, want %v", next.ID(), b.ID())
	}
	m.ActivateWorkspace(b.ID())
	wrapped := m.NextWorkspace()
	if wrapped.ID() != a.ID() {
		t.Fatalf("NextWorkspace() wrap = %v, want %v", wrapped.ID(), a.ID())
	}
	prev := m.PrevWorkspace()
	if prev.ID() != b.ID() {
		t.Fatalf("PrevWorkspace() wrap = %v, want %v", prev.ID(), b.ID())
	}
}

func TestRemoveWorkspaceReturnsItsWindowIDs(t *testing.T) {
	m := newTestMonitor()
	ws := m.CreateWorkspace("one", strategy.BSP, strategy.Gaps{})
	ws.AddWindow(&WindowNode{WindowID: 1})
	ws.AddWindow(&WindowNode{WindowID: 2})
	m.CreateWorkspace("two", strategy.BSP, strategy.Gaps{})

	ids, err := m.RemoveWorkspace(ws.ID())
	if err != nil {
		t.Fatalf("RemoveWorkspace() error: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("RemoveWorkspace() returned %v, want 2 window ids", ids)
	}
	if _, ok := m.FindWorkspace(ws.ID()); ok {
		t.Fatal("FindWorkspace() still finds removed workspace")
	}
}

func TestFindWorkspaceReturnsFalseForUnknownID(t *testing.T) {
	m := newTestMonitor()
	if _, ok := m.FindWorkspace(uuid.New()); ok {
		t.Fatal("FindWorkspace() ok = true for unknown id")
	}
}

func TestSetFramesUpdatesFullAndVisible(t *testing.T) {
	m := newTestMonitor()
	full := accessport.Rect{X: 0, Y: 0, Width: 2560, Height: 1440}
	visible := accessport.Rect{X: 0, Y: 0, Width: 2560, Height: 1400}
	m.SetFrames(full, visible)
	if m.FullFrame() != full {
		t.Fatalf("FullFrame() = %+v, want %+v", m.FullFrame(), full)
	}
	if m.VisibleFrame() != visible {
		t.Fatalf("VisibleFrame() = %+v, want %+v", m.VisibleFrame(), visible)
	}
}
