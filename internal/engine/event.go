package engine

import "github.com/kvashchenko/windesk/internal/accessport"

// EventKind enumerates the normalized event set the engine reacts to,
// produced by internal/reconcile from raw port notifications, a periodic
// full-enumeration tick, and a geometry poll.
type EventKind int

const (
	WindowCreated EventKind = iota
	WindowDestroyed
	WindowMoved
	WindowResized
	FocusChanged
	TitleChanged
	AppActivated
	ScreenReconfigured
)

// Event is a normalized, model-ready notification.
type Event struct {
	Kind   EventKind
	Window accessport.WindowID
	PID    int
	Bounds accessport.Rect
	Title  string
}
