package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xevent"
)

// RawWindowEventKind mirrors accessport.EventKind without importing it, to
// keep this package free of a dependency on the higher-level contract it
// implements.
type RawWindowEventKind int

const (
	EvCreated RawWindowEventKind = iota
	EvDestroyed
	EvConfigured // moved and/or resized
	EvPropertyChanged
)

// RawWindowEvent is delivered to subscribers registered via Subscribe.
type RawWindowEvent struct {
	Kind   RawWindowEventKind
	Window xproto.Window
	PID    int
}

// Subscribe registers for CreateNotify/DestroyNotify/ConfigureNotify events
// on the root window for windows belonging to pid, delivering them on the
// returned channel until the
// returned cancel func is called. Only one subscription exists per pid at
// the connection level; Subscribe fans the same root-window callback out to
// every registered channel for that pid. PropertyNotify is not selected on
// client windows, so no EvPropertyChanged event is ever delivered.
func (c *Connection) Subscribe(pid int) (<-chan RawWindowEvent, func(), error) {
	ch := make(chan RawWindowEvent, 64)

	c.mu.Lock()
	first := len(c.subs) == 0
	c.subs[pid] = append(c.subs[pid], ch)
	c.mu.Unlock()

	if first {
		if err := c.attachRootHandlers(); err != nil {
			c.mu.Lock()
			delete(c.subs, pid)
			c.mu.Unlock()
			return nil, nil, fmt.Errorf("x11: attach root handlers: %w", err)
		}
	}

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		subs := c.subs[pid]
		for i, s := range subs {
			if s == ch {
				c.subs[pid] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
		if len(c.subs[pid]) == 0 {
			delete(c.subs, pid)
		}
	}

	return ch, cancel, nil
}

// attachRootHandlers wires the shared root-window callbacks exactly once per
// connection; per-pid fan-out happens inside the callbacks via c.subs.
func (c *Connection) attachRootHandlers() error {
	if err := xproto.ChangeWindowAttributesChecked(
		c.XUtil.Conn(), c.Root,
		xproto.CwEventMask,
		[]uint32{uint32(xproto.EventMaskSubstructureNotify)},
	).Check(); err != nil {
		return err
	}

	xevent.CreateNotifyFun(func(xu *xgbutil.XUtil, ev xevent.CreateNotifyEvent) {
		c.dispatchCreate(ev)
	}).Connect(c.XUtil, c.Root)

	xevent.DestroyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		c.dispatchDestroy(ev)
	}).Connect(c.XUtil, c.Root)

	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		c.dispatchConfigure(ev)
	}).Connect(c.XUtil, c.Root)

	return nil
}

func (c *Connection) pidOf(win xproto.Window) int {
	p, err := ewmh.WmPidGet(c.XUtil, win)
	if err != nil {
		return 0
	}
	return int(p)
}

func (c *Connection) fanOut(pid int, ev RawWindowEvent) {
	c.mu.Lock()
	subs := append([]chan RawWindowEvent(nil), c.subs[pid]...)
	c.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			// Drop rather than block the X11 event loop; the periodic
			// full-enumeration reconciliation tick covers missed events.
		}
	}
}

func (c *Connection) dispatchCreate(ev xevent.CreateNotifyEvent) {
	pid := c.pidOf(ev.Window)
	c.fanOut(pid, RawWindowEvent{Kind: EvCreated, Window: ev.Window, PID: pid})
}

func (c *Connection) dispatchDestroy(ev xevent.DestroyNotifyEvent) {
	pid := c.pidOf(ev.Window)
	c.fanOut(pid, RawWindowEvent{Kind: EvDestroyed, Window: ev.Window, PID: pid})
}

func (c *Connection) dispatchConfigure(ev xevent.ConfigureNotifyEvent) {
	pid := c.pidOf(ev.Window)
	c.fanOut(pid, RawWindowEvent{Kind: EvConfigured, Window: ev.Window, PID: pid})
}
