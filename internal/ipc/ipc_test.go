package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kvashchenko/windesk/internal/accessport"
	"github.com/kvashchenko/windesk/internal/classify"
	"github.com/kvashchenko/windesk/internal/command"
	"github.com/kvashchenko/windesk/internal/config"
	"github.com/kvashchenko/windesk/internal/engine"
	"github.com/kvashchenko/windesk/internal/layout/strategy"
	"github.com/kvashchenko/windesk/internal/model"
	"github.com/kvashchenko/windesk/internal/registry"
)

type fakeHandle accessport.WindowID

func (h fakeHandle) WindowID() accessport.WindowID { return accessport.WindowID(h) }

type fakePort struct{}

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
func (p *fakePort) Focus(accessport.Handle) error                        { return nil }
func (p *fakePort) Raise(accessport.Handle) error                        { return nil }
func (p *fakePort) Minimize(accessport.Handle) error                     { return nil }
func (p *fakePort) Subscribe(int, accessport.EventMask) (accessport.Subscription, error) {
	return nil, errors.New("not supported")
}
func (p *fakePort) BeginResizeFriendly(accessport.Handle) (func(), error) { return func() {}, nil }

func newTestServer(t *testing.T) (*Server, *model.Monitor, *model.Workspace) {
	t.Helper()
	eng := engine.New(&fakePort{}, registry.New(), classify.NewCache(classify.Rules{}), 2, nil)
	m := model.NewMonitor(model.MonitorID(0), "primary",
		accessport.Rect{X: 0, Y: 0, Width: 1000, Height: 500},
		accessport.Rect{X: 0, Y: 0, Width: 1000, Height: 500})
	ws := m.CreateWorkspace("main", strategy.BSP, strategy.Gaps{})
	eng.AddMonitor(m)

	s := &Server{
		cfg:        config.DefaultConfig(),
		eng:        eng,
		dispatcher: command.New(eng, nil),
		reloadChan: make(chan struct{}, 1),
	}
	return s, m, ws
}

func TestParseRequestRoundTrips(t *testing.T) {
	body := []byte(`{"command":"GET_STATUS"}`)
	req, err := ParseRequest(body)
	if err != nil {
		t.Fatalf("ParseRequest() error: %v", err)
	}
	if req.Command != CommandGetStatus {
		t.Fatalf("Command = %v, want %v", req.Command, CommandGetStatus)
	}
}

func TestResponseMarshalIncludesHUD(t *testing.T) {
	resp := &Response{Status: "OK", HUD: "cycle_layout"}
	data, err := resp.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	var decoded Response
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if decoded.HUD != "cycle_layout" {
		t.Fatalf("HUD = %q, want %q", decoded.HUD, "cycle_layout")
	}
}

func TestHandleCommandUnknownReturnsError(t *testing.T) {
	s, _, _ := newTestServer(t)
	resp := s.handleCommand(&Request{Command: "NOT_A_REAL_COMMAND"})
	if resp.Status != "ERROR" {
		t.Fatalf("Status = %q, want ERROR", resp.Status)
	}
}

func TestHandleGetStatusReportsMonitorsAndWorkspace(t *testing.T) {
	s, _, ws := newTestServer(t)
	resp := s.handleGetStatus()
	if resp.Status != "OK" {
		t.Fatalf("Status = %q, want OK: %s", resp.Status, resp.Error)
	}
	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if len(status.Monitors) != 1 || status.Monitors[0].WorkspaceName != ws.Title() {
		t.Fatalf("Monitors = %+v, want one entry named %q", status.Monitors, ws.Title())
	}
}

func TestHandleSwitchWorkspaceUnknownMonitorReturnsError(t *testing.T) {
	s, _, ws := newTestServer(t)
	payload, _ := json.Marshal(SwitchWorkspacePayload{MonitorID: 99, WorkspaceID: ws.ID().String()})
	resp := s.handleSwitchWorkspace(payload)
	if resp.Status != "ERROR" {
		t.Fatalf("Status = %q, want ERROR for an unknown monitor", resp.Status)
	}
}

func TestHandleSaveLayoutPersistsCurrentWorkspaces(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	s, _, ws := newTestServer(t)

	resp := s.handleSaveLayout()
	if resp.Status != "OK" {
		t.Fatalf("Status = %q, want OK: %s", resp.Status, resp.Error)
	}
	if s.cfg.Workspaces[0].Name != ws.Title() {
		t.Fatalf("saved workspace name = %q, want %q", s.cfg.Workspaces[0].Name, ws.Title())
	}

	path, err := config.DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath() error: %v", err)
	}
	reloaded, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if len(reloaded.Workspaces) != 1 || reloaded.Workspaces[0].Name != ws.Title() {
		t.Fatalf("reloaded workspaces = %+v, want one named %q", reloaded.Workspaces, ws.Title())
	}
}
