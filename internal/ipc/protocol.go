package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType names one request the daemon's IPC socket accepts.
type CommandType string

const (
	CommandReload          CommandType = "RELOAD"
	CommandGetStatus       CommandType = "GET_STATUS"
	CommandGetMonitors     CommandType = "GET_MONITORS"
	CommandListWorkspaces  CommandType = "LIST_WORKSPACES"
	CommandDispatch        CommandType = "DISPATCH"
	CommandSwitchWorkspace CommandType = "SWITCH_WORKSPACE"
	CommandSaveLayout      CommandType = "SAVE_LAYOUT"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
	// HUD carries an optional transient status message the palette/HUD
	// front-end can surface to the user, per the system's "optionally a
	// transient HUD message" requirement.
	HUD string `json:"hud,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Monitors      []MonitorStatus `json:"monitors"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	DaemonRunning bool            `json:"daemon_running"`
}

// MonitorStatus summarizes one monitor's active workspace and window count.
type MonitorStatus struct {
	MonitorID       int    `json:"monitor_id"`
	ActiveWorkspace string `json:"active_workspace_id"`
	WorkspaceName   string `json:"workspace_name"`
	Layout          string `json:"layout"`
	WindowCount     int    `json:"window_count"`
}

// MonitorInfo represents information about a single monitor
type MonitorInfo struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// MonitorsData represents the data returned by GET_MONITORS
type MonitorsData struct {
	Monitors []MonitorInfo `json:"monitors"`
}

// WorkspaceInfo describes one workspace for LIST_WORKSPACES.
type WorkspaceInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MonitorID int    `json:"monitor_id"`
	Layout    string `json:"layout"`
	Active    bool   `json:"active"`
}

// WorkspacesData represents the data returned by LIST_WORKSPACES
type WorkspacesData struct {
	Workspaces []WorkspaceInfo `json:"workspaces"`
}

// DispatchPayload carries a Command Layer action to run against the
// workspace currently active on MonitorID, the same (action, payload)
// shape internal/command.Dispatcher.Dispatch takes.
type DispatchPayload struct {
	MonitorID int    `json:"monitor_id"`
	Action    string `json:"action"`
	Payload   string `json:"payload,omitempty"`
}

// SwitchWorkspacePayload requests that MonitorID's active workspace become
// WorkspaceID.
type SwitchWorkspacePayload struct {
	MonitorID   int    `json:"monitor_id"`
	WorkspaceID string `json:"workspace_id"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
