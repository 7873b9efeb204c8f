// Package reconcile is the single producer of normalized engine.Event
// values: it owns the port event subscriptions, a periodic full-enumeration
// safety-net tick, and a short geometry poll, and feeds everything through
// one channel into the model thread.
package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kvashchenko/windesk/internal/accessport"
	"github.com/kvashchenko/windesk/internal/engine"
)

// Config holds reconciler tuning knobs, all with spec-compliant defaults.
type Config struct {
	FullScanInterval time.Duration // [1s, 2s]
	GeometryPoll     time.Duration // ~100ms
	GeometryEpsilon  int           // px
	Logger           *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.FullScanInterval <= 0 {
		c.FullScanInterval = 1500 * time.Millisecond
	}
	if c.GeometryPoll <= 0 {
		c.GeometryPoll = 100 * time.Millisecond
	}
	if c.GeometryEpsilon <= 0 {
		c.GeometryEpsilon = 2
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Reconciler drives engine.Engine from three sources of truth: per-pid port
// subscriptions, a full-enumeration ticker, and a geometry poll. Run blocks
// until ctx is cancelled, the same shape as the teacher's
// daemon.Reconciler.Run.
type Reconciler struct {
	cfg  Config
	port accessport.Port
	eng  *engine.Engine

	subMu sync.Mutex
	subs  map[int]accessport.Subscription // by pid

	lastFrames map[accessport.WindowID]accessport.Rect
	limiter    *rate.Limiter
}

// New builds a Reconciler over port, feeding normalized events to eng.
func New(port accessport.Port, eng *engine.Engine, cfg Config) *Reconciler {
	cfg = cfg.withDefaults()
	return &Reconciler{
		cfg:        cfg,
		port:       port,
		eng:        eng,
		subs:       make(map[int]accessport.Subscription),
		lastFrames: make(map[accessport.WindowID]accessport.Rect),
		limiter:    rate.NewLimiter(rate.Every(cfg.GeometryPoll), 1),
	}
}

// Run drives the full-enumeration ticker and geometry poll until ctx is
// cancelled. Per-pid subscriptions are started lazily as new pids are
// observed in a full scan, mirroring the teacher's "registered when a new
// pid is first observed" policy.
func (r *Reconciler) Run(ctx context.Context) {
	scanTicker := time.NewTicker(r.cfg.FullScanInterval)
	defer scanTicker.Stop()
	pollTicker := time.NewTicker(r.cfg.GeometryPoll)
	defer pollTicker.Stop()

	r.cfg.Logger.Info("reconciler started",
		"full_scan_interval", r.cfg.FullScanInterval,
		"geometry_poll", r.cfg.GeometryPoll)

	r.fullScan(ctx)

	for {
		select {
		case <-ctx.Done():
			r.closeSubscriptions()
			r.cfg.Logger.Info("reconciler stopped")
			return
		case <-scanTicker.C:
			r.fullScan(ctx)
		case <-pollTicker.C:
			if r.limiter.Allow() {
				r.geometryPoll(ctx)
			}
		}
	}
}

// fullScan is the safety net against missed port events: it enumerates
// every visible window, synthesizes Created for anything unknown to the
// engine, starts a subscription for any newly observed pid, and lets
// HandleEvent's Destroyed path catch anything the engine still owns that
// no longer appears (driven by the per-pid subscription's DestroyNotify,
// not by this scan directly — a scan alone cannot distinguish "destroyed"
// from "still off in another workspace").
func (r *Reconciler) fullScan(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			r.cfg.Logger.Error("reconciler panic recovered", "panic", p)
		}
	}()

	snaps, err := r.port.ListVisibleWindows(ctx)
	if err != nil {
		r.cfg.Logger.Error("reconciler: list windows failed", "error", err)
		return
	}

	seen := make(map[int]bool)
	for _, snap := range snaps {
		if _, _, owned := r.eng.WorkspaceOwning(snap.ID); !owned {
			r.eng.HandleEvent(ctx, engine.Event{
				Kind:   engine.WindowCreated,
				Window: snap.ID,
				PID:    snap.PID,
				Bounds: snap.Bounds,
				Title:  snap.Title,
			})
		}
		r.lastFrames[snap.ID] = snap.Bounds
		if !seen[snap.PID] {
			seen[snap.PID] = true
			r.ensureSubscription(snap.PID)
		}
	}
}

// ensureSubscription starts a per-pid event subscription if one isn't
// already running, retrying silently on the next full scan if Subscribe
// fails (the spec's EventSubscriptionFailed recovery policy).
func (r *Reconciler) ensureSubscription(pid int) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	if _, ok := r.subs[pid]; ok {
		return
	}
	sub, err := r.port.Subscribe(pid, accessport.MaskOf(
		accessport.EventWindowCreated,
		accessport.EventFocusChanged,
		accessport.EventMoved,
		accessport.EventResized,
		accessport.EventTitleChanged,
		accessport.EventDestroyed,
		accessport.EventAppActivated,
	))
	if err != nil {
		r.cfg.Logger.Debug("reconciler: subscribe failed, will retry next scan", "pid", pid, "error", err)
		return
	}
	r.subs[pid] = sub
	go r.pump(pid, sub)
}

func (r *Reconciler) pump(pid int, sub accessport.Subscription) {
	for raw := range sub.Events() {
		ev, ok := normalize(raw)
		if !ok {
			continue
		}
		r.eng.HandleEvent(context.Background(), ev)
	}
	r.subMu.Lock()
	delete(r.subs, pid)
	r.subMu.Unlock()
}

func normalize(raw accessport.RawEvent) (engine.Event, bool) {
	ev := engine.Event{Window: raw.Window, PID: raw.PID, Bounds: raw.Bounds, Title: raw.Title}
	switch raw.Kind {
	case accessport.EventWindowCreated:
		ev.Kind = engine.WindowCreated
	case accessport.EventDestroyed:
		ev.Kind = engine.WindowDestroyed
	case accessport.EventMoved:
		ev.Kind = engine.WindowMoved
	case accessport.EventResized:
		ev.Kind = engine.WindowResized
	case accessport.EventFocusChanged:
		ev.Kind = engine.FocusChanged
	case accessport.EventTitleChanged:
		ev.Kind = engine.TitleChanged
	case accessport.EventAppActivated:
		ev.Kind = engine.AppActivated
	default:
		return engine.Event{}, false
	}
	return ev, true
}

// geometryPoll compares last-known frames against a fresh port snapshot and
// synthesizes Moved/Resized events for deltas beyond GeometryEpsilon, the
// safety net for window managers/toolkits that don't emit ConfigureNotify
// reliably.
func (r *Reconciler) geometryPoll(ctx context.Context) {
	snaps, err := r.port.ListVisibleWindows(ctx)
	if err != nil {
		return
	}
	for _, snap := range snaps {
		prev, ok := r.lastFrames[snap.ID]
		r.lastFrames[snap.ID] = snap.Bounds
		if !ok || !r.exceedsEpsilon(prev, snap.Bounds) {
			continue
		}
		kind := engine.WindowMoved
		if prev.Width != snap.Bounds.Width || prev.Height != snap.Bounds.Height {
			kind = engine.WindowResized
		}
		r.eng.HandleEvent(ctx, engine.Event{Kind: kind, Window: snap.ID, PID: snap.PID, Bounds: snap.Bounds})
	}
}

func (r *Reconciler) exceedsEpsilon(a, b accessport.Rect) bool {
	return absDelta(a.X, b.X) > r.cfg.GeometryEpsilon ||
		absDelta(a.Y, b.Y) > r.cfg.GeometryEpsilon ||
		absDelta(a.Width, b.Width) > r.cfg.GeometryEpsilon ||
		absDelta(a.Height, b.Height) > r.cfg.GeometryEpsilon
}

func absDelta(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

func (r *Reconciler) closeSubscriptions() {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for pid, sub := range r.subs {
		_ = sub.Close()
		delete(r.subs, pid)
	}
}
