package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/kvashchenko/windesk/internal/ipc"
	"github.com/kvashchenko/windesk/internal/palette"
)

// runPalette shows a hierarchical palette (Workspaces / Layouts / Settings)
// backed by whichever palette.Backend palette.AutoDetect finds installed,
// and dispatches the selection through the daemon's IPC socket.
func runPalette(args []string) int {
	fs := flag.NewFlagSet("palette", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	monitorID := fs.Int("monitor", 0, "Target monitor id (default: 0)")

	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stderr, "Usage: windesk palette [--monitor ID]")
		return 0
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	backend, err := palette.NewBackend("auto")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	client := ipc.NewClient()

	menu := palette.NewMenu(backend, palette.BuildRootMenu(client, *monitorID))
	menu.SetMessage(palette.BuildContextMessage(client, *monitorID))

	result, err := menu.Show()
	if err != nil {
		if errors.Is(err, palette.ErrCancelled) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	return palette.ExecuteAction(client, *monitorID, result.Action, runReload, runStatus)
}
