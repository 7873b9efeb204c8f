package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/kvashchenko/windesk/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	_, err := c.sendRequest(&Request{Command: CommandReload})
	return err
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}
	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return &status, nil
}

// GetMonitors retrieves monitor information
func (c *Client) GetMonitors() (*MonitorsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetMonitors})
	if err != nil {
		return nil, err
	}
	var monitors MonitorsData
	if err := json.Unmarshal(resp.Data, &monitors); err != nil {
		return nil, fmt.Errorf("failed to parse monitors data: %w", err)
	}
	return &monitors, nil
}

// ListWorkspaces retrieves every known workspace across every monitor.
func (c *Client) ListWorkspaces() (*WorkspacesData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListWorkspaces})
	if err != nil {
		return nil, err
	}
	var data WorkspacesData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse workspaces data: %w", err)
	}
	return &data, nil
}

// Dispatch runs a named Command Layer action against monitorID's active
// workspace. Returns the HUD message the daemon attached, if any.
func (c *Client) Dispatch(monitorID int, action, payload string) (string, error) {
	body, err := json.Marshal(DispatchPayload{MonitorID: monitorID, Action: action, Payload: payload})
	if err != nil {
		return "", fmt.Errorf("failed to marshal dispatch payload: %w", err)
	}
	resp, err := c.sendRequest(&Request{Command: CommandDispatch, Payload: body})
	if err != nil {
		return "", err
	}
	return resp.HUD, nil
}

// SwitchWorkspace requests monitorID activate workspaceID.
func (c *Client) SwitchWorkspace(monitorID int, workspaceID string) error {
	body, err := json.Marshal(SwitchWorkspacePayload{MonitorID: monitorID, WorkspaceID: workspaceID})
	if err != nil {
		return fmt.Errorf("failed to marshal switch payload: %w", err)
	}
	_, err = c.sendRequest(&Request{Command: CommandSwitchWorkspace, Payload: body})
	return err
}

// SaveLayout asks the daemon to persist the current workspace arrangement
// to the settings file. Returns the HUD message the daemon attached, if any.
func (c *Client) SaveLayout() (string, error) {
	resp, err := c.sendRequest(&Request{Command: CommandSaveLayout})
	if err != nil {
		return "", err
	}
	return resp.HUD, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
