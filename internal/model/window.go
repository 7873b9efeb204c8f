// Package model holds the live in-memory data model: monitors, workspaces,
// and the window nodes they track. Mutation of any of these structures must
// happen on the model/event loop goroutine; see internal/engine.
package model

import "github.com/kvashchenko/windesk/internal/accessport"

// WindowNode is the per-window record a workspace keeps, indexed by
// WindowID in the owning workspace.
type WindowNode struct {
	WindowID           accessport.WindowID
	PID                int
	Title              string
	IsFloatingOverride bool
	LastKnownFrame     accessport.Rect
	SavedFrame         *accessport.Rect
}

// Clone returns a value copy safe to hand outside the workspace lock.
func (n *WindowNode) Clone() WindowNode {
	out := *n
	if n.SavedFrame != nil {
		f := *n.SavedFrame
		out.SavedFrame = &f
	}
	return out
}

// SentinelX and SentinelY are the off-screen coordinates used to hide a
// workspace's windows during a switch. A window observed at this position
// must be excluded from classification (it is mid-switch, not genuinely
// placed there by the user).
const (
	SentinelX = -10000
	SentinelY = -10000
)

// AtSentinel reports whether r sits at the off-screen hide position.
func AtSentinel(r accessport.Rect) bool {
	return r.X == SentinelX && r.Y == SentinelY
}
