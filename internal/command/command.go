// Package command implements the named action set a hotkey or IPC client
// can invoke against the active workspace: directional focus/swap, floating
// toggle, equalize, workspace reassignment, and layout cycling/selection.
// Every action is a no-op on a failed precondition — it never returns an
// error a caller needs to surface to the user, matching the teacher's
// hotkeys.Handler.RegisterFunc log-and-continue style.
package command

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kvashchenko/windesk/internal/accessport"
	"github.com/kvashchenko/windesk/internal/engine"
	"github.com/kvashchenko/windesk/internal/layout/strategy"
	"github.com/kvashchenko/windesk/internal/model"
)

// Action names the closed vocabulary of string actions a hotkey spec, IPC
// client, or palette menu item can name. These are the only strings
// Dispatch's switch recognizes; anything else falls through to the
// unknown-action debug log.
const (
	ActionFocusDirection         = "focus_direction"
	ActionSwapDirection          = "swap_direction"
	ActionToggleFloat            = "toggle_float"
	ActionEqualize               = "equalize"
	ActionMoveFocusedToWorkspace = "move_focused_to_workspace"
	ActionCycleLayout            = "cycle_layout"
	ActionSetLayout              = "set_layout"
)

// Direction is one of the four cardinal directions used by FocusDirection
// and SwapDirection.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

// ParseDirection maps a lowercase direction name to a Direction, defaulting
// to Right on anything unrecognized (callers should validate membership in
// the closed action set upstream; this default only protects against a
// malformed payload from reaching an undefined direction).
func ParseDirection(s string) Direction {
	switch strings.ToLower(s) {
	case "left":
		return Left
	case "up":
		return Up
	case "down":
		return Down
	default:
		return Right
	}
}

// Dispatcher binds the named action set to a live Engine.
type Dispatcher struct {
	eng *engine.Engine
	log *slog.Logger
}

// New builds a Dispatcher over eng.
func New(eng *engine.Engine, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{eng: eng, log: log}
}

// Dispatch runs the named action with a raw string payload (direction name,
// workspace id, or layout kind, depending on the action) against m's active
// workspace. Unknown action names are ignored with a debug log, per
// spec.md §6.
func (d *Dispatcher) Dispatch(ctx context.Context, m *model.Monitor, action, payload string) {
	ws, ok := m.ActiveWorkspace()
	if !ok {
		return
	}

	switch action {
	case ActionFocusDirection:
		d.FocusDirection(ctx, m, ws, ParseDirection(payload))
	case ActionSwapDirection:
		d.SwapDirection(ctx, m, ws, ParseDirection(payload))
	case ActionToggleFloat:
		d.ToggleFloat(ctx, m, ws, parseWindowID(payload, ws))
	case ActionEqualize:
		d.Equalize(ctx, m, ws)
	case ActionMoveFocusedToWorkspace:
		d.MoveFocusedToWorkspace(ctx, m, ws, payload)
	case ActionCycleLayout:
		_ = d.eng.CycleLayout(ctx, m, ws)
	case ActionSetLayout:
		_ = d.eng.SetLayout(ctx, m, ws, strategy.ParseKind(payload))
	default:
		d.log.Debug("command: unknown action", "action", action)
	}
}

// parseWindowID resolves payload to a window id, defaulting to the
// workspace's currently focused window when payload is empty.
func parseWindowID(payload string, ws *model.Workspace) accessport.WindowID {
	if payload == "" {
		if id, ok := ws.Focused(); ok {
			return id
		}
		return 0
	}
	n, err := strconv.ParseUint(payload, 10, 32)
	if err != nil {
		return 0
	}
	return accessport.WindowID(n)
}

// candidate is one scored window under consideration for a directional
// move.
type candidate struct {
	id     accessport.WindowID
	center accessport.Point
	score  float64
	perp   float64
}

// FocusDirection moves focus to the tileable window in the active
// workspace whose center lies strictly in direction dir from the currently
// focused window, minimizing euclidean_distance + 2*perpendicular_offset.
// Ties break by smaller perpendicular offset, then lower window id. With no
// in-direction candidate it wraps to the farthest window on the opposite
// edge along dir.
func (d *Dispatcher) FocusDirection(ctx context.Context, m *model.Monitor, ws *model.Workspace, dir Direction) {
	target := d.pickDirectional(ws, dir)
	if target == 0 {
		return
	}
	h, err := d.eng.Port().ResolveHandle(ctx, target)
	if err != nil {
		return
	}
	_ = d.eng.Port().Focus(h)
	ws.SetFocused(target)
}

// SwapDirection selects the same candidate as FocusDirection, swaps the two
// windows' positions (BSP leaves or stack order), keeps focus on the
// originally focused window, and reflows.
func (d *Dispatcher) SwapDirection(ctx context.Context, m *model.Monitor, ws *model.Workspace, dir Direction) {
	focused, ok := ws.Focused()
	if !ok {
		return
	}
	target := d.pickDirectional(ws, dir)
	if target == 0 || target == focused {
		return
	}

	if ws.LayoutKind() == strategy.BSP {
		ws.Tree().SwapLeaves(focused, target)
	} else {
		ws.SwapOrder(focused, target)
	}

	_ = d.eng.ApplyTiling(ctx, m, ws)
}

// pickDirectional implements the shared candidate-selection rule used by
// both FocusDirection and SwapDirection: among tileable windows with a
// center strictly in dir from the focused window's center, pick the one
// minimizing euclidean distance plus twice the perpendicular offset; if
// none qualifies, wrap to the farthest window along the opposite edge.
func (d *Dispatcher) pickDirectional(ws *model.Workspace, dir Direction) accessport.WindowID {
	focusedID, ok := ws.Focused()
	if !ok {
		return 0
	}
	focusedNode, ok := ws.FindWindow(focusedID)
	if !ok {
		return 0
	}
	from := focusedNode.LastKnownFrame.Center()

	var inDirection []candidate
	var all []candidate
	for _, id := range ws.WindowIDs() {
		if id == focusedID || !ws.IsTiled(id) {
			continue
		}
		node, ok := ws.FindWindow(id)
		if !ok {
			continue
		}
		c := node.LastKnownFrame.Center()
		cand := candidate{id: id, center: c}
		all = append(all, cand)
		if strictlyInDirection(from, c, dir) {
			cand.perp = perpendicularOffset(from, c, dir)
			cand.score = euclidean(from, c) + 2*cand.perp
			inDirection = append(inDirection, cand)
		}
	}

	if best, ok := bestOf(inDirection); ok {
		return best
	}

	// Wrap: farthest window along dir's opposite edge.
	var wrapBest accessport.WindowID
	var wrapScore float64
	found := false
	for _, cand := range all {
		score := edgeScore(cand.center, dir)
		if !found || score > wrapScore {
			wrapScore = score
			wrapBest = cand.id
			found = true
		}
	}
	return wrapBest
}

func bestOf(cands []candidate) (accessport.WindowID, bool) {
	if len(cands) == 0 {
		return 0, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.score < best.score ||
			(c.score == best.score && c.perp < best.perp) ||
			(c.score == best.score && c.perp == best.perp && c.id < best.id) {
			best = c
		}
	}
	return best.id, true
}

func strictlyInDirection(from, to accessport.Point, dir Direction) bool {
	switch dir {
	case Left:
		return to.X < from.X
	case Right:
		return to.X > from.X
	case Up:
		return to.Y < from.Y
	default:
		return to.Y > from.Y
	}
}

func perpendicularOffset(from, to accessport.Point, dir Direction) float64 {
	switch dir {
	case Left, Right:
		return math.Abs(float64(to.Y - from.Y))
	default:
		return math.Abs(float64(to.X - from.X))
	}
}

func euclidean(a, b accessport.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// edgeScore ranks candidates for wrap-around by their coordinate along dir
// only (higher is farther toward the opposite edge); cross-axis offset is
// not considered.
func edgeScore(c accessport.Point, dir Direction) float64 {
	switch dir {
	case Left:
		return float64(c.X)
	case Right:
		return -float64(c.X)
	case Up:
		return float64(c.Y)
	default:
		return -float64(c.Y)
	}
}

// ToggleFloat flips id's floating override and reflows. No-op if id isn't
// in ws.
func (d *Dispatcher) ToggleFloat(ctx context.Context, m *model.Monitor, ws *model.Workspace, id accessport.WindowID) {
	if id == 0 {
		return
	}
	ok := ws.MutateWindow(id, func(n *model.WindowNode) {
		n.IsFloatingOverride = !n.IsFloatingOverride
	})
	if !ok {
		return
	}
	_ = d.eng.ApplyTiling(ctx, m, ws)
}

// Equalize resets every BSP split ratio to 0.5 and reflows. No-op outside
// BSP layout.
func (d *Dispatcher) Equalize(ctx context.Context, m *model.Monitor, ws *model.Workspace) {
	if ws.LayoutKind() != strategy.BSP {
		return
	}
	ws.Tree().Equalize()
	_ = d.eng.ApplyTiling(ctx, m, ws)
}

// MoveFocusedToWorkspace reassigns the focused window from ws to the
// workspace named by targetID (a uuid string), reflowing both. No-op if
// there's no focused window or targetID doesn't resolve to a workspace on
// any known monitor.
func (d *Dispatcher) MoveFocusedToWorkspace(ctx context.Context, m *model.Monitor, ws *model.Workspace, targetID string) {
	focused, ok := ws.Focused()
	if !ok {
		return
	}
	id, err := uuid.Parse(targetID)
	if err != nil {
		return
	}
	destWS, destMonitor, ok := d.eng.WorkspaceByID(id)
	if !ok || destWS.ID() == ws.ID() {
		return
	}

	node, ok := ws.FindWindow(focused)
	if !ok {
		return
	}
	ws.RemoveWindow(focused)
	d.eng.Registry().Reassign(focused, destWS.ID())
	destWS.AddWindow(&node)

	_ = d.eng.ApplyTiling(ctx, m, ws)
	_ = d.eng.ApplyTiling(ctx, destMonitor, destWS)
}
