package http

import "github.com/gin-gonic/gin"

// PointerPath is the pointer route relative to the desktop group.
const PointerPath = "/windows/:id/pointer"

// Register mounts the desktop routes. The group must already require a session.
// pointer runs ahead of the pointer handler only.
func (h *Handler) Register(rg *gin.RouterGroup, pointer ...gin.HandlerFunc) {
	rg.GET("/apps", h.ListApps)
	rg.POST("/apps/:appId/toggle", h.ToggleApp)

	rg.GET("/windows", h.ListWindows)
	rg.POST("/windows", h.OpenWindow)
	rg.DELETE("/windows", h.ResetDesktop)
	rg.DELETE("/windows/:id", h.CloseWindow)
	rg.POST("/windows/:id/minimize", h.MinimizeWindow)
	rg.POST("/windows/:id/maximize", h.MaximizeWindow)
	rg.POST("/windows/:id/focus", h.FocusWindow)
	rg.PUT("/windows/:id/position", h.MoveWindow)
	rg.PUT("/windows/:id/size", h.ResizeWindow)
	rg.POST(PointerPath, append(pointer, h.Pointer)...)
}
