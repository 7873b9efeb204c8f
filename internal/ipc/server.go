package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kvashchenko/windesk/internal/command"
	"github.com/kvashchenko/windesk/internal/config"
	"github.com/kvashchenko/windesk/internal/engine"
	"github.com/kvashchenko/windesk/internal/model"
	"github.com/kvashchenko/windesk/internal/runtimepath"
)

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	listener   net.Listener

	cfg   *config.Config
	cfgMu sync.RWMutex

	eng        *engine.Engine
	dispatcher *command.Dispatcher
	log        *slog.Logger

	startTime    time.Time
	reloadChan   chan struct{}
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(cfg *config.Config, eng *engine.Engine, dispatcher *command.Dispatcher, reloadChan chan struct{}, log *slog.Logger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}

	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		cfg:        cfg,
		eng:        eng,
		dispatcher: dispatcher,
		log:        log,
		startTime:  time.Now(),
		reloadChan: reloadChan,
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.log.Info("ipc: listening", "socket", s.socketPath)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			down := s.shuttingDown
			s.shutdownMu.Unlock()
			if down {
				return
			}
			s.log.Warn("ipc: accept error", "error", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.log.Warn("ipc: read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.log.Warn("ipc: failed to marshal response", "error", err)
		return
	}
	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.log.Warn("ipc: failed to send response", "error", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetMonitors:
		return s.handleGetMonitors()
	case CommandListWorkspaces:
		return s.handleListWorkspaces()
	case CommandDispatch:
		return s.handleDispatch(req.Payload)
	case CommandSwitchWorkspace:
		return s.handleSwitchWorkspace(req.Payload)
	case CommandSaveLayout:
		return s.handleSaveLayout()
	default:
		return NewErrorResponse(fmt.Sprintf("unknown command: %s", req.Command))
	}
}

func (s *Server) handleReload() *Response {
	newCfg, err := config.Load()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("failed to reload config: %v", err))
	}

	s.cfgMu.Lock()
	s.cfg = newCfg
	s.cfgMu.Unlock()
	s.eng.SetRules(newCfg.ClassifyRules())

	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetStatus() *Response {
	var monitors []MonitorStatus
	for _, m := range s.eng.Monitors() {
		active, ok := m.ActiveWorkspace()
		st := MonitorStatus{MonitorID: int(m.ID())}
		if ok {
			st.ActiveWorkspace = active.ID().String()
			st.WorkspaceName = active.Title()
			st.Layout = active.LayoutKind().String()
			st.WindowCount = len(active.WindowIDs())
		}
		monitors = append(monitors, st)
	}

	status := StatusData{
		Monitors:      monitors,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	}
	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleGetMonitors() *Response {
	displays, err := s.eng.Port().Displays(context.Background())
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("failed to get monitors: %v", err))
	}

	infos := make([]MonitorInfo, len(displays))
	for i, d := range displays {
		infos[i] = MonitorInfo{
			ID: d.ID, Name: d.Name,
			X: d.Bounds.X, Y: d.Bounds.Y,
			Width: d.Bounds.Width, Height: d.Bounds.Height,
		}
	}
	resp, _ := NewOKResponse(MonitorsData{Monitors: infos})
	return resp
}

func (s *Server) handleListWorkspaces() *Response {
	var out []WorkspaceInfo
	for _, m := range s.eng.Monitors() {
		active, hasActive := m.ActiveWorkspace()
		for _, ws := range m.Workspaces() {
			out = append(out, WorkspaceInfo{
				ID:        ws.ID().String(),
				Name:      ws.Title(),
				MonitorID: int(m.ID()),
				Layout:    ws.LayoutKind().String(),
				Active:    hasActive && active.ID() == ws.ID(),
			})
		}
	}
	resp, _ := NewOKResponse(WorkspacesData{Workspaces: out})
	return resp
}

func (s *Server) handleDispatch(payload json.RawMessage) *Response {
	var req DispatchPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("invalid dispatch payload: %v", err))
	}
	m := s.findMonitor(req.MonitorID)
	if m == nil {
		return NewErrorResponse(fmt.Sprintf("unknown monitor_id: %d", req.MonitorID))
	}
	s.dispatcher.Dispatch(context.Background(), m, req.Action, req.Payload)

	resp, _ := NewOKResponse(nil)
	resp.HUD = hudMessage(req.Action, req.Payload)
	return resp
}

func (s *Server) handleSwitchWorkspace(payload json.RawMessage) *Response {
	var req SwitchWorkspacePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("invalid switch payload: %v", err))
	}
	m := s.findMonitor(req.MonitorID)
	if m == nil {
		return NewErrorResponse(fmt.Sprintf("unknown monitor_id: %d", req.MonitorID))
	}
	id, err := uuid.Parse(req.WorkspaceID)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("invalid workspace_id: %v", err))
	}
	if err := s.eng.SwitchWorkspace(context.Background(), m, id); err != nil {
		return NewErrorResponse(fmt.Sprintf("switch workspace failed: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

// handleSaveLayout snapshots every monitor's current workspace set (name,
// monitor pinning, layout kind) into the settings store and persists it, so
// a future daemon start reproduces the workspace arrangement in place
// rather than falling back to one default workspace per monitor.
func (s *Server) handleSaveLayout() *Response {
	var defs []config.WorkspaceDef
	for _, m := range s.eng.Monitors() {
		for _, ws := range m.Workspaces() {
			defs = append(defs, config.WorkspaceDef{
				ID:        ws.ID(),
				Name:      ws.Title(),
				MonitorID: int(m.ID()),
				Layout:    ws.LayoutKind().String(),
			})
		}
	}

	s.cfgMu.Lock()
	s.cfg.Workspaces = defs
	cfg := s.cfg
	s.cfgMu.Unlock()

	path, err := config.DefaultConfigPath()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("failed to resolve config path: %v", err))
	}
	if err := config.Save(cfg, path); err != nil {
		return NewErrorResponse(fmt.Sprintf("failed to save layout: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	resp.HUD = fmt.Sprintf("saved %d workspace(s)", len(defs))
	return resp
}

func (s *Server) findMonitor(id int) *model.Monitor {
	for _, m := range s.eng.Monitors() {
		if int(m.ID()) == id {
			return m
		}
	}
	return nil
}

func hudMessage(action, payload string) string {
	if payload == "" {
		return action
	}
	return action + ": " + payload
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

// GetConfig returns the current config (thread-safe)
func (s *Server) GetConfig() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig updates the config (thread-safe)
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.cfg = cfg
}
