// Package hotkeys grabs global X11 key sequences and turns each one into a
// command-layer action dispatched against the monitor the pointer is
// currently on.
package hotkeys

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/kvashchenko/windesk/internal/accessport"
	"github.com/kvashchenko/windesk/internal/command"
	"github.com/kvashchenko/windesk/internal/engine"
	"github.com/kvashchenko/windesk/internal/model"
)

// Handler grabs the configured key sequences and routes each to
// command.Dispatcher.Dispatch.
type Handler struct {
	xu   *xgbutil.XUtil
	root xproto.Window

	eng        *engine.Engine
	dispatcher *command.Dispatcher
	log        *slog.Logger
}

var ignoreModsOnce sync.Once

// NewHandler wires a Handler to dispatch through dispatcher, resolving the
// target monitor from the pointer position at trigger time via eng.
func NewHandler(xu *xgbutil.XUtil, root xproto.Window, eng *engine.Engine, dispatcher *command.Dispatcher, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})
	return &Handler{xu: xu, root: root, eng: eng, dispatcher: dispatcher, log: log}
}

// RegisterAll grabs every configured keySequence -> action:payload binding.
// A binding that fails to grab is logged and skipped; the rest are still
// registered.
func (h *Handler) RegisterAll(bindings map[string]string) {
	for seq, spec := range bindings {
		action, payload := splitSpec(spec)
		if err := h.register(seq, action, payload); err != nil {
			h.log.Warn("hotkeys: failed to register binding", "sequence", seq, "action", action, "error", err)
		}
	}
}

func splitSpec(spec string) (action, payload string) {
	action, payload, _ = strings.Cut(spec, ":")
	return action, payload
}

func (h *Handler) register(keySequence, action, payload string) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		h.trigger(action, payload)
	}).Connect(h.xu, h.root, keySequence, true)
}

func (h *Handler) trigger(action, payload string) {
	m := h.monitorUnderPointer()
	if m == nil {
		return
	}
	h.dispatcher.Dispatch(context.Background(), m, action, payload)
}

func (h *Handler) monitorUnderPointer() *model.Monitor {
	pt, err := pointerPosition(h.xu, h.root)
	if err != nil {
		monitors := h.eng.Monitors()
		if len(monitors) == 0 {
			return nil
		}
		return monitors[0]
	}
	return h.eng.MonitorContaining(pt)
}

func pointerPosition(xu *xgbutil.XUtil, root xproto.Window) (accessport.Point, error) {
	reply, err := xproto.QueryPointer(xu.Conn(), root).Reply()
	if err != nil {
		return accessport.Point{}, err
	}
	return accessport.Point{X: int(reply.RootX), Y: int(reply.RootY)}, nil
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
