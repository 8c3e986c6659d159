// Package interaction turns pointer gestures on a window's title bar or
// resize handle into geometry commits on a window store.
//
// Geometry is buffered locally while a gesture is live and written to the
// store once, on release.
package interaction

import (
	"math"
	"sync"

	"github.com/smithos/smithos-backend/internal/desktop/window"
)

// Mode is the gesture state of a single window.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDragging
	ModeResizing
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeDragging:
		return "dragging"
	case ModeResizing:
		return "resizing"
	default:
		return "unknown"
	}
}

// Target is the part of the window a pointer-down landed on.
type Target string

const (
	TargetTitleBar     Target = "title-bar"
	TargetResizeHandle Target = "resize-handle"
)

// GeometryStore is the part of window.Store the controller needs.
type GeometryStore interface {
	Get(id string) (window.Window, bool)
	UpdateWindowPosition(id string, p window.Point)
	UpdateWindowSize(id string, s window.Size)
}

type gesture struct {
	mode Mode

	// dragging
	offset   window.Point
	position window.Point

	// resizing
	startPointer window.Point
	startSize    window.Size
	size         window.Size
}

// Controller tracks at most one gesture per window.
type Controller struct {
	mu       sync.Mutex
	store    GeometryStore
	gestures map[string]*gesture
}

func NewController(store GeometryStore) *Controller {
	return &Controller{
		store:    store,
		gestures: make(map[string]*gesture),
	}
}

// PointerDown starts a drag or resize. A gesture still tracked for the window
// lost its pointer-up, so it is dropped without committing. It returns false
// when the window is unknown or the target is not recognised.
func (c *Controller) PointerDown(id string, target Target, p window.Point) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.gestures, id)
	w, ok := c.store.Get(id)
	if !ok {
		return false
	}

	switch target {
	case TargetTitleBar:
		c.gestures[id] = &gesture{
			mode:     ModeDragging,
			offset:   window.Point{X: p.X - w.Position.X, Y: p.Y - w.Position.Y},
			position: w.Position,
		}
	case TargetResizeHandle:
		c.gestures[id] = &gesture{
			mode:         ModeResizing,
			startPointer: p,
			startSize:    w.Size,
			size:         w.Size,
		}
	default:
		return false
	}
	return true
}

// PointerMove updates the live geometry of an active gesture.
func (c *Controller) PointerMove(id string, p window.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.gestures[id]
	if !ok {
		return
	}
	switch g.mode {
	case ModeDragging:
		g.position = window.Point{X: p.X - g.offset.X, Y: p.Y - g.offset.Y}
	case ModeResizing:
		g.size = window.Size{
			Width:  math.Max(window.MinWidth, g.startSize.Width+p.X-g.startPointer.X),
			Height: math.Max(window.MinHeight, g.startSize.Height+p.Y-g.startPointer.Y),
		}
	}
}

// PointerUp commits the gesture's geometry and returns the window to idle.
// A pointer-up with no tracked gesture is accepted silently.
func (c *Controller) PointerUp(id string) {
	c.mu.Lock()
	g, ok := c.gestures[id]
	delete(c.gestures, id)
	c.mu.Unlock()

	if !ok {
		return
	}
	switch g.mode {
	case ModeDragging:
		c.store.UpdateWindowPosition(id, g.position)
	case ModeResizing:
		c.store.UpdateWindowSize(id, g.size)
	}
}

// Cancel drops a gesture without committing.
func (c *Controller) Cancel(id string) {
	c.mu.Lock()
	delete(c.gestures, id)
	c.mu.Unlock()
}

func (c *Controller) Mode(id string) Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.gestures[id]; ok {
		return g.mode
	}
	return ModeIdle
}

// Live returns the window with any in-flight geometry applied on top of the
// committed state.
func (c *Controller) Live(id string) (window.Window, bool) {
	w, ok := c.store.Get(id)
	if !ok {
		return window.Window{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if g, active := c.gestures[id]; active {
		switch g.mode {
		case ModeDragging:
			w.Position = g.position
		case ModeResizing:
			w.Size = g.size
		}
	}
	return w, true
}
