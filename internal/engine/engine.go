// Package engine is the per-workspace tiling orchestrator: it selects a
// layout strategy, consults the window classifier, computes the diff
// against last-known geometry, and dispatches the result to the
// accessibility port through a bounded worker pool.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/kvashchenko/windesk/internal/accessport"
	"github.com/kvashchenko/windesk/internal/classify"
	"github.com/kvashchenko/windesk/internal/layout/strategy"
	"github.com/kvashchenko/windesk/internal/metrics"
	"github.com/kvashchenko/windesk/internal/model"
	"github.com/kvashchenko/windesk/internal/registry"
)

const (
	reflowDebounce   = 200 * time.Millisecond
	geometryEpsilon  = 1 // px; diffs smaller than this are not worth a port call
	defaultWorkers   = 6
)

// Engine owns the live monitor set, the window registry, and the
// classifier cache, and is the only thing allowed to call the
// accessibility port for geometry mutation. All of its model-touching
// methods are meant to be called from a single goroutine (the model/event
// loop); the worker pool below is the only concurrency inside it.
type Engine struct {
	log *slog.Logger

	port     accessport.Port
	registry *registry.Registry
	cache    *classify.Cache

	mu       sync.Mutex // guards monitors only; model mutation stays single-threaded by convention
	monitors []*model.Monitor

	sem     *semaphore.Weighted
	metrics *metrics.Registry

	reflowMu    sync.Mutex
	reflowTimer map[uuid.UUID]*time.Timer

	onPermissionDenied func()
	portDisabled       bool
}

// SetMetrics installs the collector set reflows and port dispatch report
// to. Optional; a nil registry (the zero value, never set) means metrics
// calls are skipped.
func (e *Engine) SetMetrics(m *metrics.Registry) { e.metrics = m }

// New builds an Engine. workers bounds the accessibility-port worker pool;
// pass 0 to use the default (6), the midpoint of the spec's 4-8 target
// range.
func New(port accessport.Port, reg *registry.Registry, cache *classify.Cache, workers int, log *slog.Logger) *Engine {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		log:         log,
		port:        port,
		registry:    reg,
		cache:       cache,
		sem:         semaphore.NewWeighted(int64(workers)),
		reflowTimer: make(map[uuid.UUID]*time.Timer),
	}
}

// AddMonitor registers a detected monitor.
func (e *Engine) AddMonitor(m *model.Monitor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.monitors = append(e.monitors, m)
}

// Monitors returns the currently known monitors.
func (e *Engine) Monitors() []*model.Monitor {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*model.Monitor, len(e.monitors))
	copy(out, e.monitors)
	return out
}

// RemoveMonitor drops m from the known set (e.g. on disconnect), returning
// its workspaces so the caller can re-merge them per policy.
func (e *Engine) RemoveMonitor(id model.MonitorID) []*model.Workspace {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, m := range e.monitors {
		if m.ID() == id {
			e.monitors = append(e.monitors[:i], e.monitors[i+1:]...)
			return m.Workspaces()
		}
	}
	return nil
}

// MonitorContaining returns the monitor whose full frame contains pt, or
// the first known monitor as a fallback (the Open Question in spec §9 on
// off-screen-cursor new-window assignment is resolved in favor of this
// fallback, recorded in DESIGN.md).
func (e *Engine) MonitorContaining(pt accessport.Point) *model.Monitor {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, m := range e.monitors {
		f := m.FullFrame()
		if pt.X >= f.X && pt.X < f.X+f.Width && pt.Y >= f.Y && pt.Y < f.Y+f.Height {
			return m
		}
	}
	if len(e.monitors) > 0 {
		return e.monitors[0]
	}
	return nil
}

// Port exposes the accessibility port for command-layer operations (focus,
// raise) that don't go through ApplyTiling's diff/dispatch path.
func (e *Engine) Port() accessport.Port { return e.port }

// Registry exposes the window registry for command-layer reassignment
// operations (move_focused_to_workspace).
func (e *Engine) Registry() *registry.Registry { return e.registry }

// WorkspaceByID scans every known monitor for the workspace with id.
func (e *Engine) WorkspaceByID(id uuid.UUID) (*model.Workspace, *model.Monitor, bool) {
	for _, m := range e.Monitors() {
		if ws, ok := m.FindWorkspace(id); ok {
			return ws, m, true
		}
	}
	return nil, nil, false
}

// WorkspaceOwning returns the workspace and monitor that own window, if any.
func (e *Engine) WorkspaceOwning(window accessport.WindowID) (*model.Workspace, *model.Monitor, bool) {
	wsID, ok := e.registry.Lookup(window)
	if !ok {
		return nil, nil, false
	}
	for _, m := range e.Monitors() {
		if ws, ok := m.FindWorkspace(wsID); ok {
			return ws, m, true
		}
	}
	return nil, nil, false
}

// disablePortWrites implements the PermissionDenied policy: surface once,
// then stop attempting port writes for the rest of the session.
func (e *Engine) disablePortWrites(err error) {
	e.mu.Lock()
	already := e.portDisabled
	e.portDisabled = true
	e.mu.Unlock()
	if already {
		return
	}
	e.log.Error("accessibility port refused an operation; disabling further port writes", "error", err)
	if e.onPermissionDenied != nil {
		e.onPermissionDenied()
	}
}

// OnPermissionDenied registers a callback fired exactly once, the first
// time the port reports PermissionDenied.
func (e *Engine) OnPermissionDenied(fn func()) { e.onPermissionDenied = fn }
