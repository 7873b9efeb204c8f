// Package accessport defines the accessibility-port contract the core uses
// to read and mutate windows on whatever OS window-control API is present.
// Implementations live in per-OS subpackages (see accessport/x11); the core
// never imports them directly, only the Port interface.
package accessport

import "context"

// WindowID is an opaque OS window identifier, borrowed from the host: the
// core never assumes a handle stays valid once issued.
type WindowID uint32

// Handle is an opaque resolved reference to a window, returned by
// ResolveHandle and consumed by every geometry/attribute call.
type Handle interface {
	WindowID() WindowID
}

// Rect is a rectangular region in screen coordinates.
type Rect struct {
	X, Y, Width, Height int
}

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Point is a screen coordinate pair.
type Point struct {
	X, Y int
}

// Center returns the rect's midpoint.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Display describes one physical monitor and its usable work area.
type Display struct {
	ID     int
	Name   string
	Bounds Rect // full physical frame
	Usable Rect // frame minus panel/dock struts
}

// WindowSnapshot is a cheap, read-only view of one visible top-level window.
type WindowSnapshot struct {
	ID     WindowID
	PID    int
	Bounds Rect
	Title  string
	Layer  int
}

// Attr names a readable/writable window attribute.
type Attr string

const (
	AttrTitle        Attr = "title"
	AttrRole         Attr = "role"
	AttrSubrole      Attr = "subrole"
	AttrModal        Attr = "modal"
	AttrMinimized    Attr = "minimized"
	AttrFocused      Attr = "focused"
	AttrFullscreen   Attr = "fullscreen"
	AttrResizable    Attr = "resizable"
	AttrEnhancedUI   Attr = "enhanced_ui"
)

// EventKind enumerates the raw per-process events a Subscription delivers.
type EventKind int

const (
	EventWindowCreated EventKind = iota
	EventFocusChanged
	EventMoved
	EventResized
	EventTitleChanged
	EventDestroyed
	EventAppActivated
)

// EventMask selects which EventKinds a Subscribe call wants delivered.
type EventMask uint32

func MaskOf(kinds ...EventKind) EventMask {
	var m EventMask
	for _, k := range kinds {
		m |= 1 << uint(k)
	}
	return m
}

func (m EventMask) Has(k EventKind) bool {
	return m&(1<<uint(k)) != 0
}

// RawEvent is a port-level notification, not yet normalized by the
// reconciler into the model-facing event types.
type RawEvent struct {
	Kind   EventKind
	Window WindowID
	PID    int
	Bounds Rect
	Title  string
}

// Subscription delivers RawEvents for one process onto a channel until
// Close is called.
type Subscription interface {
	Events() <-chan RawEvent
	Close() error
}

// Port abstracts window-system operations across platforms. Every method
// may return an error satisfying wmerrors.Gone when the target window has
// disappeared; callers must treat that as a destruction signal, not a
// transient failure to retry.
type Port interface {
	ListVisibleWindows(ctx context.Context) ([]WindowSnapshot, error)
	Displays(ctx context.Context) ([]Display, error)
	ResolveHandle(ctx context.Context, id WindowID) (Handle, error)

	GetFrame(h Handle) (Rect, error)
	SetFrame(h Handle, r Rect) error

	GetAttr(h Handle, attr Attr) (any, error)
	SetAttr(h Handle, attr Attr, value any) error

	Focus(h Handle) error
	Raise(h Handle) error
	Minimize(h Handle) error

	Subscribe(pid int, mask EventMask) (Subscription, error)

	// BeginResizeFriendly disables host-side animation/bounce around a
	// frame change for the given window and returns a function that
	// restores it. end must be safe to call exactly once and must be
	// called on every exit path, including error paths.
	BeginResizeFriendly(h Handle) (end func(), err error)
}
