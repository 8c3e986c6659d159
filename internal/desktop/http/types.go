package http

import (
	"context"

	"github.com/smithos/smithos-backend/internal/desktop"
	"github.com/smithos/smithos-backend/internal/desktop/service"
	"github.com/smithos/smithos-backend/internal/desktop/window"
)

// Desktop is implemented by service.Manager.
type Desktop interface {
	Apps(isAdmin bool) []desktop.App
	Windows(ctx context.Context, userID string) ([]window.Window, error)
	Open(ctx context.Context, userID string, isAdmin bool, spec window.Spec) ([]window.Window, error)
	Toggle(ctx context.Context, userID string, isAdmin bool, appID string) ([]window.Window, error)
	Close(ctx context.Context, userID, windowID string) ([]window.Window, error)
	Minimize(ctx context.Context, userID, windowID string) ([]window.Window, error)
	Maximize(ctx context.Context, userID, windowID string) ([]window.Window, error)
	Focus(ctx context.Context, userID, windowID string) ([]window.Window, error)
	Move(ctx context.Context, userID, windowID string, p window.Point) ([]window.Window, error)
	Resize(ctx context.Context, userID, windowID string, size window.Size) ([]window.Window, error)
	Pointer(ctx context.Context, userID, windowID string, ev service.PointerEvent) (service.PointerState, error)
	Reset(ctx context.Context, userID string) ([]window.Window, error)
}

type openWindowRequest struct {
	AppID       string        `json:"app_id" binding:"required"`
	Title       string        `json:"title"`
	Component   string        `json:"component"`
	Position    *window.Point `json:"position"`
	Size        *window.Size  `json:"size"`
	IsMinimized bool          `json:"is_minimized"`
}

type positionRequest struct {
	X *float64 `json:"x" binding:"required"`
	Y *float64 `json:"y" binding:"required"`
}

type sizeRequest struct {
	Width  *float64 `json:"width" binding:"required"`
	Height *float64 `json:"height" binding:"required"`
}

type pointerRequest struct {
	Phase  string  `json:"phase" binding:"required"`
	Target string  `json:"target"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type windowsResponse struct {
	Windows []window.Window `json:"windows"`
}
