// Command windesk is the tiling daemon and its CLI: "windesk daemon" owns
// the X11 connection, the layout engine, the event reconciler, global
// hotkeys, and the IPC socket; the other subcommands are thin IPC clients
// that talk to a running daemon.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/kvashchenko/windesk/internal/accessport"
	x11port "github.com/kvashchenko/windesk/internal/accessport/x11"
	"github.com/kvashchenko/windesk/internal/classify"
	"github.com/kvashchenko/windesk/internal/command"
	"github.com/kvashchenko/windesk/internal/config"
	"github.com/kvashchenko/windesk/internal/engine"
	"github.com/kvashchenko/windesk/internal/hotkeys"
	"github.com/kvashchenko/windesk/internal/ipc"
	"github.com/kvashchenko/windesk/internal/layout/strategy"
	"github.com/kvashchenko/windesk/internal/metrics"
	"github.com/kvashchenko/windesk/internal/model"
	"github.com/kvashchenko/windesk/internal/observability/logging"
	"github.com/kvashchenko/windesk/internal/reconcile"
	"github.com/kvashchenko/windesk/internal/registry"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		runDaemon()
	case "status":
		os.Exit(runStatus())
	case "reload":
		os.Exit(runReload())
	case "palette":
		os.Exit(runPalette(os.Args[2:]))
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(2)
	}
}

func printUsage(w *os.File) {
	fmt.Fprintln(w, "Usage: windesk <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon   Run the tiling daemon in the foreground")
	fmt.Fprintln(w, "  status   Print monitor/workspace status from a running daemon")
	fmt.Fprintln(w, "  reload   Ask the running daemon to reload its configuration")
	fmt.Fprintln(w, "  palette  Show a command palette for workspace/layout actions")
}

func runDaemon() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "windesk: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(os.Stderr, cfg.LogLevel)
	log.Info("configuration loaded", "default_layout", cfg.DefaultLayout, "inner_gap", cfg.InnerGap, "outer_gap", cfg.OuterGap)

	port, err := x11port.Open()
	if err != nil {
		log.Error("failed to connect to X11 display", "error", err)
		os.Exit(1)
	}
	defer port.Close()
	log.Info("windesk daemon connected to display")

	reg := registry.New()
	cache := classify.NewCache(cfg.ClassifyRules())
	eng := engine.New(port, reg, cache, 0, log)
	eng.SetMetrics(metrics.New())

	ctx := context.Background()
	if err := seedMonitors(ctx, port, eng, cfg, log); err != nil {
		log.Error("failed to enumerate displays", "error", err)
		os.Exit(1)
	}

	dispatcher := command.New(eng, log)

	hotkeyHandler := hotkeys.NewHandler(port.Conn().XUtil, port.Conn().Root, eng, dispatcher, log)
	hotkeyHandler.RegisterAll(cfg.Hotkeys)

	reloadChan := make(chan struct{}, 1)
	ipcServer, err := ipc.NewServer(cfg, eng, dispatcher, reloadChan, log)
	if err != nil {
		log.Error("failed to create IPC server", "error", err)
		os.Exit(1)
	}
	if err := ipcServer.Start(); err != nil {
		log.Error("failed to start IPC server", "error", err)
		os.Exit(1)
	}
	defer ipcServer.Stop()

	reconcilerCtx, cancelReconciler := context.WithCancel(context.Background())
	defer cancelReconciler()
	rec := reconcile.New(port, eng, reconcile.Config{Logger: log})
	go rec.Run(reconcilerCtx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					log.Info("received SIGHUP, reloading configuration")
					newCfg, err := config.Load()
					if err != nil {
						log.Warn("config reload failed", "error", err)
						continue
					}
					ipcServer.UpdateConfig(newCfg)
					eng.SetRules(newCfg.ClassifyRules())
					log.Info("configuration reloaded")
				case os.Interrupt, syscall.SIGTERM:
					log.Info("shutting down")
					cancelReconciler()
					ipcServer.Stop()
					port.Close()
					os.Exit(0)
				}
			case <-reloadChan:
				newCfg := ipcServer.GetConfig()
				eng.SetRules(newCfg.ClassifyRules())
			}
		}
	}()

	log.Info("entering event loop")
	port.Conn().EventLoop()
}

// seedMonitors enumerates the connected displays, registers one
// model.Monitor per display, and attaches every workspace pinned to that
// monitor by config. A monitor with no pinned workspaces gets one default
// workspace so the "at least one workspace per monitor" invariant holds
// from startup.
func seedMonitors(ctx context.Context, port accessport.Port, eng *engine.Engine, cfg *config.Config, log *slog.Logger) error {
	displays, err := port.Displays(ctx)
	if err != nil {
		return err
	}

	byMonitor := make(map[int][]config.WorkspaceDef)
	for _, ws := range cfg.Workspaces {
		byMonitor[ws.MonitorID] = append(byMonitor[ws.MonitorID], ws)
	}

	for _, d := range displays {
		m := model.NewMonitor(model.MonitorID(d.ID), d.Name, d.Bounds, d.Usable)
		gaps := strategy.Gaps{Inner: cfg.InnerGap, Outer: cfg.OuterGap}

		defs := byMonitor[d.ID]
		if len(defs) == 0 {
			m.CreateWorkspace("main", cfg.DefaultLayout, gaps)
		} else {
			for _, def := range defs {
				kind := cfg.DefaultLayout
				if def.Layout != "" {
					kind = strategy.ParseKind(def.Layout)
				}
				id := def.ID
				if id == uuid.Nil {
					id = uuid.New()
				}
				m.AdoptWorkspace(model.NewWorkspace(id, def.Name, m.ID(), kind, gaps))
			}
		}

		eng.AddMonitor(m)
		log.Info("monitor registered", "monitor_id", d.ID, "name", d.Name, "workspaces", len(m.Workspaces()))
	}
	return nil
}

// runStatus prints the running daemon's per-monitor status. Exit code 1
// means the daemon could not be reached.
func runStatus() int {
	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("uptime: %ds\n", status.UptimeSeconds)
	for _, m := range status.Monitors {
		fmt.Printf("monitor %d: workspace %q (%s), %d window(s)\n",
			m.MonitorID, m.WorkspaceName, m.Layout, m.WindowCount)
	}
	return 0
}

// runReload asks the running daemon to re-read its configuration file.
func runReload() int {
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("configuration reloaded")
	return 0
}
