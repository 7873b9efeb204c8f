// Package x11 implements the Linux accessibility-port primitives on top of
// XGB/xgbutil: connection setup, monitor enumeration via RandR, window
// geometry/attributes via EWMH and ICCCM, and per-process event delivery.
package x11

import (
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Connection manages the X11 connection, core resources, and the per-pid
// event routing table used by Subscribe.
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	mu   sync.Mutex
	subs map[int][]chan RawWindowEvent // pid -> subscriber channels
}

// NewConnection establishes a connection to the X11 server and initializes
// the extensions the port depends on (keybind for hotkeys; EWMH/RandR
// initialize lazily on first use).
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}

	keybind.Initialize(xu)

	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
		subs:  make(map[int][]chan RawWindowEvent),
	}, nil
}

// EventLoop starts the main X11 event loop (blocking). Hotkey callbacks and
// per-window CreateNotify/DestroyNotify/ConfigureNotify/PropertyNotify
// handlers registered via Subscribe all fire from this loop.
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// Close cleanly disconnects from the X11 server.
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
