package window

import "time"

const (
	// MinWidth and MinHeight are the size floor enforced by resize callers.
	MinWidth  = 300
	MinHeight = 400

	// BaseZIndex is the counter's starting value; the first window gets BaseZIndex+1.
	BaseZIndex = 1000

	// ReopenSuppression is how long a closed app ignores ToggleWindow.
	ReopenSuppression = 500 * time.Millisecond
)

// Point is a coordinate in desktop space. Values are not clamped and may be
// negative or off-screen.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a window's outer dimensions.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Window is one open window on a desktop.
type Window struct {
	ID          string `json:"id"`
	AppID       string `json:"app_id"`
	Title       string `json:"title"`
	Component   string `json:"component,omitempty"` // opaque renderer reference
	Position    Point  `json:"position"`
	Size        Size   `json:"size"`
	IsMinimized bool   `json:"is_minimized"`
	ZIndex      int    `json:"z_index"`
}

// Spec describes a window to create; the store assigns ID and ZIndex.
type Spec struct {
	AppID       string `json:"app_id"`
	Title       string `json:"title"`
	Component   string `json:"component,omitempty"`
	Position    Point  `json:"position"`
	Size        Size   `json:"size"`
	IsMinimized bool   `json:"is_minimized"`
}

// Snapshot is the persistable state of a store.
type Snapshot struct {
	Windows []Window `json:"windows"`
	MaxZ    int      `json:"max_z"`
}

// ClampSize applies the MinWidth/MinHeight floor.
func ClampSize(s Size) Size {
	if s.Width < MinWidth {
		s.Width = MinWidth
	}
	if s.Height < MinHeight {
		s.Height = MinHeight
	}
	return s
}
