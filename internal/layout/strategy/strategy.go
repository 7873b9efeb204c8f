// Package strategy computes window geometry for one layout kind over an
// ordered window list. Strategies are pure functions of their inputs: no
// strategy reads or writes workspace state.
package strategy

import "github.com/kvashchenko/windesk/internal/accessport"

// Kind is the closed set of layout strategies, dispatched via Compute
// instead of an open interface hierarchy.
type Kind int

const (
	Float Kind = iota
	HStack
	VStack
	ZStack
	BSP
)

// Next returns the layout cycling successor, fixed order Float -> HStack ->
// VStack -> ZStack -> BSP -> Float.
func (k Kind) Next() Kind {
	return (k + 1) % (BSP + 1)
}

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case HStack:
		return "hstack"
	case VStack:
		return "vstack"
	case ZStack:
		return "zstack"
	case BSP:
		return "bsp"
	default:
		return "unknown"
	}
}

// ParseKind maps a configuration string onto a Kind, defaulting to Float on
// an unrecognized value so a bad config field degrades to a safe layout
// rather than rejecting startup.
func ParseKind(s string) Kind {
	switch s {
	case "hstack":
		return HStack
	case "vstack":
		return VStack
	case "zstack":
		return ZStack
	case "bsp":
		return BSP
	default:
		return Float
	}
}

// Gaps holds the inner (between windows) and outer (edge) gap in pixels.
type Gaps struct {
	Inner int
	Outer int
}

// Tree is the read-only view of a BSP layout tree that Compute needs: given
// the available rect, walk the tree and emit a WindowId -> Rect mapping.
// Defined here rather than importing layout/tree directly so strategy stays
// ignorant of the tree's mutation API (insert/remove/reconcile).
type Tree interface {
	// Layout walks the tree assigning rect to the root and splitting it at
	// each branch per axis/ratio, calling emit(windowID, rect) at each leaf
	// that still holds a live window.
	Layout(rect accessport.Rect, innerGap int, emit func(id accessport.WindowID, r accessport.Rect))
}

// Compute dispatches to the strategy named by kind. windows is the ordered,
// already-classified tileable set; tree is only consulted for kind == BSP
// and may be nil otherwise.
func Compute(kind Kind, windows []accessport.WindowID, available accessport.Rect, gaps Gaps, tree Tree) map[accessport.WindowID]accessport.Rect {
	available = shrink(available, gaps.Outer)

	switch kind {
	case Float:
		return map[accessport.WindowID]accessport.Rect{}
	case HStack:
		return stack(windows, available, gaps.Inner, true)
	case VStack:
		return stack(windows, available, gaps.Inner, false)
	case ZStack:
		out := make(map[accessport.WindowID]accessport.Rect, len(windows))
		for _, id := range windows {
			out[id] = available
		}
		return out
	case BSP:
		out := make(map[accessport.WindowID]accessport.Rect, len(windows))
		if tree == nil || available.Empty() {
			return out
		}
		tree.Layout(available, gaps.Inner, func(id accessport.WindowID, r accessport.Rect) {
			out[id] = r
		})
		return out
	default:
		return map[accessport.WindowID]accessport.Rect{}
	}
}

func shrink(r accessport.Rect, outer int) accessport.Rect {
	r.X += outer
	r.Y += outer
	r.Width -= 2 * outer
	r.Height -= 2 * outer
	if r.Width < 0 {
		r.Width = 0
	}
	if r.Height < 0 {
		r.Height = 0
	}
	return r
}

// stack splits available into len(windows) equal columns (horizontal=true)
// or rows (horizontal=false), separated by innerGap, preserving order. Any
// leftover pixel from integer division is absorbed by the last segment so
// adjacent rects tile exactly.
func stack(windows []accessport.WindowID, available accessport.Rect, innerGap int, horizontal bool) map[accessport.WindowID]accessport.Rect {
	out := make(map[accessport.WindowID]accessport.Rect, len(windows))
	n := len(windows)
	if n == 0 {
		return out
	}
	if n == 1 {
		out[windows[0]] = available
		return out
	}

	total := available.Width
	if !horizontal {
		total = available.Height
	}

	totalGap := innerGap * (n - 1)
	segment := (total - totalGap) / n
	remainder := (total - totalGap) - segment*n
	if segment < 0 {
		segment = 0
	}

	cursor := 0
	if horizontal {
		cursor = available.X
	} else {
		cursor = available.Y
	}

	for i, id := range windows {
		w := segment
		if i == n-1 {
			w += remainder
		}
		if horizontal {
			out[id] = accessport.Rect{X: cursor, Y: available.Y, Width: w, Height: available.Height}
		} else {
			out[id] = accessport.Rect{X: available.X, Y: cursor, Width: available.Width, Height: w}
		}
		cursor += w + innerGap
	}
	return out
}
