package palette

import (
	"fmt"
	"os"
	"strings"

	"github.com/kvashchenko/windesk/internal/command"
	"github.com/kvashchenko/windesk/internal/ipc"
	"github.com/kvashchenko/windesk/internal/layout/strategy"
)

// The palette-local actions and the switch_workspace prefix below are the
// only leaf actions BuildRootMenu ever emits; ExecuteAction's
// switch recognizes exactly this set plus command.Dispatcher's vocabulary.
const (
	actionReload     = "__reload__"
	actionStatus     = "__status__"
	actionSaveLayout = "__save_layout__"
	actionSwitchWS   = "switch_workspace:"
)

// layoutKinds is the fixed list a layout submenu offers (BSP first; this is
// not the Kind.Next cycling order), sourced
// from strategy.Kind rather than a hardcoded string list so a new Kind
// added to the layout engine shows up here for free.
var layoutKinds = []strategy.Kind{strategy.BSP, strategy.HStack, strategy.VStack, strategy.ZStack, strategy.Float}

// BuildContextMessage renders the one-line status banner a palette shows
// above its root menu: the target monitor's active workspace name, layout,
// and window count. Empty if the daemon can't be reached or monitorID has
// no matching status entry.
func BuildContextMessage(client *ipc.Client, monitorID int) string {
	status, err := client.GetStatus()
	if err != nil {
		return ""
	}
	for _, m := range status.Monitors {
		if m.MonitorID == monitorID {
			return fmt.Sprintf("%s • %s • %d window(s)", m.WorkspaceName, m.Layout, m.WindowCount)
		}
	}
	return ""
}

// BuildRootMenu assembles the three-way palette root (Workspaces / Layouts
// / Settings) for monitorID, querying the daemon over client for the
// workspace list and current status.
func BuildRootMenu(client *ipc.Client, monitorID int) []MenuItem {
	return []MenuItem{
		{Label: "Workspaces", Icon: "view-grid", Submenu: buildWorkspacesMenu(client, monitorID)},
		{Label: "Layouts", Icon: "view-paged", Submenu: buildLayoutsMenu()},
		{Label: "Settings", Icon: "preferences-system", Submenu: buildSettingsMenu()},
	}
}

func buildWorkspacesMenu(client *ipc.Client, monitorID int) []MenuItem {
	data, err := client.ListWorkspaces()
	if err != nil {
		return []MenuItem{{Label: fmt.Sprintf("error: %v", err), IsHeader: true}}
	}

	var items []MenuItem
	for _, ws := range data.Workspaces {
		if ws.MonitorID != monitorID {
			continue
		}
		items = append(items, MenuItem{
			Label:    ws.Name,
			Action:   actionSwitchWS + ws.ID,
			Icon:     "view-grid-symbolic",
			IsActive: ws.Active,
			Meta:     ws.Layout,
		})
	}
	if len(items) == 0 {
		items = append(items, MenuItem{Label: "no workspaces on this monitor", IsHeader: true})
	}
	return items
}

func buildLayoutsMenu() []MenuItem {
	items := make([]MenuItem, 0, len(layoutKinds)+1)
	items = append(items, MenuItem{
		Label:  "Cycle layout",
		Action: command.ActionCycleLayout + ":",
		Icon:   "view-refresh",
	})
	for _, k := range layoutKinds {
		name := k.String()
		items = append(items, MenuItem{
			Label:  strings.ToUpper(name[:1]) + name[1:],
			Action: command.ActionSetLayout + ":" + name,
			Icon:   layoutIcon(k),
		})
	}
	return items
}

func layoutIcon(k strategy.Kind) string {
	switch k {
	case strategy.BSP:
		return "view-dual"
	case strategy.HStack:
		return "view-columns"
	case strategy.VStack:
		return "view-rows"
	case strategy.ZStack:
		return "view-stack"
	default:
		return "window"
	}
}

func buildSettingsMenu() []MenuItem {
	return []MenuItem{
		{Label: "Reload configuration", Action: actionReload, Icon: "view-refresh"},
		{Label: "Show status", Action: actionStatus, Icon: "dialog-information"},
		{Label: "Save current layout", Action: actionSaveLayout, Icon: "document-save"},
	}
}

// ExecuteAction runs the leaf action a root menu built by BuildRootMenu
// produced. The two palette-local actions (reload, status) are delegated
// to the caller's printers since they own the process's stdout/exit-code
// conventions; switch_workspace has its own IPC call; everything else is
// cut at the first ":" into a command.Dispatcher action name and payload
// and sent over client.Dispatch against monitorID's active workspace.
func ExecuteAction(client *ipc.Client, monitorID int, action string, runReload, runStatus func() int) int {
	switch {
	case action == "" || action == "noop":
		return 0
	case action == actionReload:
		return runReload()
	case action == actionStatus:
		return runStatus()
	case action == actionSaveLayout:
		hud, err := client.SaveLayout()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if hud != "" {
			fmt.Println(hud)
		}
		return 0
	case strings.HasPrefix(action, actionSwitchWS):
		id := strings.TrimPrefix(action, actionSwitchWS)
		if err := client.SwitchWorkspace(monitorID, id); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	default:
		name, payload, _ := strings.Cut(action, ":")
		hud, err := client.Dispatch(monitorID, name, payload)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if hud != "" {
			fmt.Println(hud)
		}
		return 0
	}
}
