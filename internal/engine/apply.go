package engine

import (
	"context"
	"errors"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kvashchenko/windesk/internal/accessport"
	"github.com/kvashchenko/windesk/internal/classify"
	"github.com/kvashchenko/windesk/internal/layout/strategy"
	"github.com/kvashchenko/windesk/internal/model"
	"github.com/kvashchenko/windesk/internal/wmerrors"
)

// SetRules installs the rule set used for classification, normally called
// once at startup and again whenever the settings store reports a change.
func (e *Engine) SetRules(r classify.Rules) {
	e.cache.SetRules(r)
}

// ApplyTiling runs one reflow of ws: snapshot, classify, compute geometry,
// diff against last-known frames, and dispatch the result to the port.
// Idempotent — a second call with no intervening events produces an empty
// diff and issues no port operations.
func (e *Engine) ApplyTiling(ctx context.Context, m *model.Monitor, ws *model.Workspace) (err error) {
	if e.metrics != nil {
		start := time.Now()
		defer func() {
			e.metrics.ReflowDuration.Observe(time.Since(start).Seconds())
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			e.metrics.ReflowsTotal.WithLabelValues(outcome).Inc()
		}()
	}

	ids := ws.WindowIDs()

	var tiled, floating []accessport.WindowID
	for _, id := range ids {
		node, ok := ws.FindWindow(id)
		if !ok {
			continue
		}
		if model.AtSentinel(node.LastKnownFrame) {
			// Mid workspace-switch hide; the classifier must not see this
			// window until it's restored.
			continue
		}
		attrs := e.attrsFor(node)
		if classify.Classify(attrs, e.cache.Rules()) == classify.Float {
			floating = append(floating, id)
		} else {
			tiled = append(tiled, id)
		}
	}
	ws.SetClassification(tiled, floating)
	ws.ReconcileTree(tiled)

	visible := m.VisibleFrame()
	gaps := ws.Gaps()
	targets := strategy.Compute(ws.LayoutKind(), tiled, visible, gaps, ws.Tree())

	diff := e.diff(ws, targets)
	if len(diff) == 0 {
		return nil
	}

	if ws.LayoutKind() == strategy.ZStack {
		e.raiseInOrder(tiled)
	}

	return e.dispatch(ctx, ws, diff)
}

func (e *Engine) attrsFor(node model.WindowNode) classify.Attrs {
	a := classify.Attrs{
		IsFloatingOverride: node.IsFloatingOverride,
		Title:              node.Title,
		Width:              node.LastKnownFrame.Width,
		Height:             node.LastKnownFrame.Height,
		Resizable:          true,
	}

	h, err := e.port.ResolveHandle(context.Background(), node.WindowID)
	if err != nil {
		return a
	}
	if v, err := e.port.GetAttr(h, accessport.AttrMinimized); err == nil {
		if b, ok := v.(bool); ok {
			a.Minimized = b
		}
	}
	if v, err := e.port.GetAttr(h, accessport.AttrSubrole); err == nil {
		if s, ok := v.(string); ok {
			a.Subrole = s
		}
	}
	if v, err := e.port.GetAttr(h, accessport.AttrModal); err == nil {
		if b, ok := v.(bool); ok {
			a.Modal = b
		}
	}
	if v, err := e.port.GetAttr(h, accessport.AttrResizable); err == nil {
		if b, ok := v.(bool); ok {
			a.Resizable = b
		}
	}
	return a
}

// diff computes the set of (window, rect) pairs where some coordinate
// differs from last-known geometry by geometryEpsilon or more, sorted by
// pid; the order of ops within one pid is not defined.
type diffOp struct {
	node model.WindowNode
	rect accessport.Rect
}

func (e *Engine) diff(ws *model.Workspace, targets map[accessport.WindowID]accessport.Rect) []diffOp {
	var ops []diffOp
	for id, rect := range targets {
		node, ok := ws.FindWindow(id)
		if !ok {
			continue
		}
		if closeEnough(node.LastKnownFrame, rect) {
			continue
		}
		ops = append(ops, diffOp{node: node, rect: rect})
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].node.PID < ops[j].node.PID })
	return ops
}

func closeEnough(a, b accessport.Rect) bool {
	return absInt(a.X-b.X) < geometryEpsilon &&
		absInt(a.Y-b.Y) < geometryEpsilon &&
		absInt(a.Width-b.Width) < geometryEpsilon &&
		absInt(a.Height-b.Height) < geometryEpsilon
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// dispatch groups ops by pid and runs each pid's batch through the worker
// pool: one worker per pid-group, serialized within the group (one SetFrame
// call per window inside a resize-friendly scope; resize and move are not
// issued as separate steps), concurrent across groups,
// bounded by the semaphore acquired per task. Workers never touch the
// workspace, registry, or classifier cache directly; a window the port
// reports gone is collected and replayed as a WindowDestroyed event on
// this goroutine once every group has finished, keeping model mutation on
// the caller's thread the way every other reaction does.
func (e *Engine) dispatch(ctx context.Context, ws *model.Workspace, ops []diffOp) error {
	e.mu.Lock()
	disabled := e.portDisabled
	e.mu.Unlock()
	if disabled {
		return nil
	}

	groupMap := make(map[int][]diffOp)
	for _, op := range ops {
		groupMap[op.node.PID] = append(groupMap[op.node.PID], op)
	}
	groups := make([][]diffOp, 0, len(groupMap))
	for _, group := range groupMap {
		groups = append(groups, group)
	}

	gone := make([][]accessport.WindowID, len(groups))
	frames := make([]map[accessport.WindowID]accessport.Rect, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	for i, group := range groups {
		i, group := i, group
		if err := e.sem.Acquire(gctx, 1); err != nil {
			return err
		}
		g.Go(func() error {
			defer e.sem.Release(1)
			if e.metrics != nil {
				e.metrics.PortOpsInFlight.Inc()
				defer e.metrics.PortOpsInFlight.Dec()
			}
			frames[i], gone[i] = e.applyGroup(group)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, group := range frames {
		for id, rect := range group {
			ws.MutateWindow(id, func(n *model.WindowNode) {
				n.LastKnownFrame = rect
			})
		}
	}
	for _, goneIDs := range gone {
		for _, id := range goneIDs {
			e.HandleEvent(ctx, Event{Kind: WindowDestroyed, Window: id})
		}
	}
	return nil
}

// applyGroup runs one pid's batch of port operations and reports the
// resulting frames (for the caller to fold back into the workspace) and
// any window the port reports gone, without mutating shared model state
// itself.
func (e *Engine) applyGroup(ops []diffOp) (frames map[accessport.WindowID]accessport.Rect, gone []accessport.WindowID) {
	frames = make(map[accessport.WindowID]accessport.Rect)
	for _, op := range ops {
		h, err := e.port.ResolveHandle(context.Background(), op.node.WindowID)
		if err != nil {
			gone = append(gone, op.node.WindowID)
			continue
		}

		end, err := e.port.BeginResizeFriendly(h)
		if err != nil {
			e.handlePortErr(err)
			continue
		}

		if err := e.port.SetFrame(h, op.rect); err != nil {
			end()
			if wmerrors.Gone(err) {
				gone = append(gone, op.node.WindowID)
				continue
			}
			e.handlePortErr(err)
			continue
		}
		end()

		frames[op.node.WindowID] = op.rect
	}
	return frames, gone
}

func (e *Engine) handlePortErr(err error) {
	var pe *wmerrors.PortError
	if errors.As(err, &pe) && errors.Is(pe.Kind, wmerrors.ErrPermissionDenied) {
		e.disablePortWrites(err)
	}
}

func (e *Engine) raiseInOrder(order []accessport.WindowID) {
	for _, id := range order {
		h, err := e.port.ResolveHandle(context.Background(), id)
		if err != nil {
			continue
		}
		_ = e.port.Raise(h)
	}
}
