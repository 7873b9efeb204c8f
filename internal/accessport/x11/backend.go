//go:build linux

// Package x11 implements accessport.Port on top of internal/x11's XGB/
// xgbutil primitives: the Linux accessibility port.
package x11

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/kvashchenko/windesk/internal/accessport"
	"github.com/kvashchenko/windesk/internal/wmerrors"
	"github.com/kvashchenko/windesk/internal/x11"
)

// Backend wraps an X11 connection behind the accessport.Port contract.
type Backend struct {
	conn *x11.Connection
}

var _ accessport.Port = (*Backend)(nil)

// New wraps an existing X11 connection.
func New(conn *x11.Connection) *Backend {
	return &Backend{conn: conn}
}

// Open establishes a fresh X11 connection and wraps it.
func Open() (*Backend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("connect to X11: %w", err)
	}
	return &Backend{conn: conn}, nil
}

// Conn exposes the underlying connection for the daemon entrypoint, which
// needs it to drive the event loop and register hotkeys.
func (b *Backend) Conn() *x11.Connection { return b.conn }

// Close disconnects from the X11 server.
func (b *Backend) Close() { b.conn.Close() }

type handle xproto.Window

func (h handle) WindowID() accessport.WindowID { return accessport.WindowID(h) }

func (b *Backend) ResolveHandle(_ context.Context, id accessport.WindowID) (accessport.Handle, error) {
	win := xproto.Window(id)
	if _, err := xproto.GetGeometry(b.conn.XUtil.Conn(), xproto.Drawable(win)).Reply(); err != nil {
		return nil, &wmerrors.PortError{Kind: wmerrors.ErrWindowGone, Err: err}
	}
	return handle(win), nil
}

func (b *Backend) Displays(_ context.Context) ([]accessport.Display, error) {
	monitors, err := b.conn.GetMonitors()
	if err != nil {
		return nil, &wmerrors.PortError{Kind: wmerrors.ErrPermissionDenied, Err: err}
	}

	out := make([]accessport.Display, 0, len(monitors))
	for _, m := range monitors {
		full := accessport.Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
		usableM := b.conn.WorkArea(m)
		out = append(out, accessport.Display{
			ID:     m.ID,
			Name:   m.Name,
			Bounds: full,
			Usable: accessport.Rect{X: usableM.X, Y: usableM.Y, Width: usableM.Width, Height: usableM.Height},
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *Backend) ListVisibleWindows(_ context.Context) ([]accessport.WindowSnapshot, error) {
	clients, err := ewmh.ClientListGet(b.conn.XUtil)
	if err != nil {
		return nil, &wmerrors.PortError{Kind: wmerrors.ErrPermissionDenied, Err: err}
	}

	out := make([]accessport.WindowSnapshot, 0, len(clients))
	for _, win := range clients {
		if !b.conn.IsNormalWindow(win) {
			continue
		}
		if b.shouldSkip(win) {
			continue
		}

		rect, ok := b.windowRect(win)
		if !ok {
			continue
		}

		pid := 0
		if p, err := ewmh.WmPidGet(b.conn.XUtil, win); err == nil {
			pid = int(p)
		}

		out = append(out, accessport.WindowSnapshot{
			ID:     accessport.WindowID(win),
			PID:    pid,
			Bounds: rect,
			Title:  b.windowTitle(win),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *Backend) shouldSkip(win xproto.Window) bool {
	states, err := ewmh.WmStateGet(b.conn.XUtil, win)
	if err != nil {
		return false
	}
	for _, s := range states {
		if s == "_NET_WM_STATE_HIDDEN" {
			return true
		}
	}
	return false
}

func (b *Backend) windowRect(win xproto.Window) (accessport.Rect, bool) {
	geom, err := xproto.GetGeometry(b.conn.XUtil.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return accessport.Rect{}, false
	}
	translate, err := xproto.TranslateCoordinates(b.conn.XUtil.Conn(), win, b.conn.Root, 0, 0).Reply()
	if err != nil {
		return accessport.Rect{}, false
	}
	return accessport.Rect{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, true
}

func (b *Backend) windowTitle(win xproto.Window) string {
	if title, err := ewmh.WmNameGet(b.conn.XUtil, win); err == nil {
		if t := strings.TrimSpace(title); t != "" {
			return t
		}
	}
	if title, err := icccm.WmNameGet(b.conn.XUtil, win); err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

func (b *Backend) GetFrame(h accessport.Handle) (accessport.Rect, error) {
	win := xproto.Window(h.WindowID())
	rect, ok := b.windowRect(win)
	if !ok {
		return accessport.Rect{}, &wmerrors.PortError{Kind: wmerrors.ErrWindowGone}
	}
	return rect, nil
}

func (b *Backend) SetFrame(h accessport.Handle, r accessport.Rect) error {
	win := xproto.Window(h.WindowID())
	if err := b.conn.MoveResizeWindow(win, r.X, r.Y, r.Width, r.Height); err != nil {
		return &wmerrors.PortError{Kind: wmerrors.ErrPermissionDenied, Err: err}
	}
	return nil
}

func (b *Backend) GetAttr(h accessport.Handle, attr accessport.Attr) (any, error) {
	win := xproto.Window(h.WindowID())
	switch attr {
	case accessport.AttrTitle:
		return b.windowTitle(win), nil
	case accessport.AttrRole:
		wmClass, err := icccm.WmClassGet(b.conn.XUtil, win)
		if err != nil {
			return nil, &wmerrors.PortError{Kind: wmerrors.ErrAttributeMissing, Err: err}
		}
		return strings.TrimSpace(wmClass.Class), nil
	case accessport.AttrFullscreen, accessport.AttrModal:
		states, err := ewmh.WmStateGet(b.conn.XUtil, win)
		if err != nil {
			return nil, &wmerrors.PortError{Kind: wmerrors.ErrAttributeMissing, Err: err}
		}
		want := map[accessport.Attr]string{
			accessport.AttrFullscreen: "_NET_WM_STATE_FULLSCREEN",
			accessport.AttrModal:      "_NET_WM_STATE_MODAL",
		}[attr]
		for _, s := range states {
			if s == want {
				return true, nil
			}
		}
		return false, nil
	default:
		return nil, &wmerrors.PortError{Kind: wmerrors.ErrAttributeMissing}
	}
}

func (b *Backend) SetAttr(h accessport.Handle, attr accessport.Attr, value any) error {
	return &wmerrors.PortError{Kind: wmerrors.ErrPermissionDenied, Err: fmt.Errorf("attribute %q is read-only on this port", attr)}
}

func (b *Backend) Focus(h accessport.Handle) error {
	win := xproto.Window(h.WindowID())
	if err := b.conn.Focus(win); err != nil {
		return &wmerrors.PortError{Kind: wmerrors.ErrPermissionDenied, Err: err}
	}
	return nil
}

func (b *Backend) Raise(h accessport.Handle) error {
	win := xproto.Window(h.WindowID())
	if err := b.conn.Raise(win); err != nil {
		return &wmerrors.PortError{Kind: wmerrors.ErrPermissionDenied, Err: err}
	}
	return nil
}

func (b *Backend) Minimize(h accessport.Handle) error {
	win := xproto.Window(h.WindowID())

	reply, err := xproto.InternAtom(b.conn.XUtil.Conn(), false, uint16(len("WM_CHANGE_STATE")), "WM_CHANGE_STATE").Reply()
	if err != nil {
		return &wmerrors.PortError{Kind: wmerrors.ErrPermissionDenied, Err: err}
	}

	const iconicState = 3
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   reply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{iconicState, 0, 0, 0, 0}),
	}

	if err := xproto.SendEvent(
		b.conn.XUtil.Conn(), false, b.conn.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check(); err != nil {
		return &wmerrors.PortError{Kind: wmerrors.ErrPermissionDenied, Err: err}
	}
	return nil
}

// BeginResizeFriendly is a no-op on X11: there is no host-side animation to
// suppress around a synchronous MoveResize request.
func (b *Backend) BeginResizeFriendly(accessport.Handle) (func(), error) {
	return func() {}, nil
}

type subscription struct {
	ch     <-chan x11.RawWindowEvent
	cancel func()
	out    chan accessport.RawEvent
	done   chan struct{}
}

func (s *subscription) Events() <-chan accessport.RawEvent { return s.out }

func (s *subscription) Close() error {
	s.cancel()
	close(s.done)
	return nil
}

func (b *Backend) Subscribe(pid int, mask accessport.EventMask) (accessport.Subscription, error) {
	raw, cancel, err := b.conn.Subscribe(pid)
	if err != nil {
		return nil, &wmerrors.PortError{Kind: wmerrors.ErrEventSubscriptionFailed, Err: err}
	}

	sub := &subscription{
		ch:     raw,
		cancel: cancel,
		out:    make(chan accessport.RawEvent, 64),
		done:   make(chan struct{}),
	}

	go sub.pump(b, mask)
	return sub, nil
}

func (s *subscription) pump(b *Backend, mask accessport.EventMask) {
	defer close(s.out)
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.ch:
			if !ok {
				return
			}
			normalized, kind := normalize(ev)
			if !mask.Has(kind) {
				continue
			}
			if rect, ok := b.windowRect(ev.Window); ok {
				normalized.Bounds = rect
			}
			select {
			case s.out <- normalized:
			case <-s.done:
				return
			}
		}
	}
}

func normalize(ev x11.RawWindowEvent) (accessport.RawEvent, accessport.EventKind) {
	var kind accessport.EventKind
	switch ev.Kind {
	case x11.EvCreated:
		kind = accessport.EventWindowCreated
	case x11.EvDestroyed:
		kind = accessport.EventDestroyed
	case x11.EvConfigured:
		kind = accessport.EventResized
	default:
		kind = accessport.EventTitleChanged
	}
	return accessport.RawEvent{
		Kind:   kind,
		Window: accessport.WindowID(ev.Window),
		PID:    ev.PID,
	}, kind
}
