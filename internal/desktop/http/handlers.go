package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smithos/smithos-backend/internal/auth"
	"github.com/smithos/smithos-backend/internal/desktop/interaction"
	"github.com/smithos/smithos-backend/internal/desktop/service"
	"github.com/smithos/smithos-backend/internal/desktop/window"
)

type Handler struct {
	desk Desktop
	log  *zap.Logger
}

func New(desk Desktop, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{desk: desk, log: log.Named("desktop.http")}
}

func (h *Handler) ListApps(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"apps": h.desk.Apps(auth.IsAdmin(c))})
}

func (h *Handler) ToggleApp(c *gin.Context) {
	wins, err := h.desk.Toggle(c.Request.Context(), auth.UserID(c), auth.IsAdmin(c), c.Param("appId"))
	h.respond(c, wins, err)
}

func (h *Handler) ListWindows(c *gin.Context) {
	wins, err := h.desk.Windows(c.Request.Context(), auth.UserID(c))
	h.respond(c, wins, err)
}

// ResetDesktop closes every window and forgets the saved layout.
func (h *Handler) ResetDesktop(c *gin.Context) {
	wins, err := h.desk.Reset(c.Request.Context(), auth.UserID(c))
	h.respond(c, wins, err)
}

func (h *Handler) OpenWindow(c *gin.Context) {
	var req openWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	spec := window.Spec{
		AppID:       req.AppID,
		Title:       req.Title,
		Component:   req.Component,
		IsMinimized: req.IsMinimized,
	}
	if req.Position != nil {
		spec.Position = *req.Position
	}
	if req.Size != nil {
		spec.Size = *req.Size
	}

	wins, err := h.desk.Open(c.Request.Context(), auth.UserID(c), auth.IsAdmin(c), spec)
	if err == nil {
		c.JSON(http.StatusCreated, windowsResponse{Windows: wins})
		return
	}
	h.respond(c, nil, err)
}

func (h *Handler) CloseWindow(c *gin.Context) {
	wins, err := h.desk.Close(c.Request.Context(), auth.UserID(c), c.Param("id"))
	h.respond(c, wins, err)
}

func (h *Handler) MinimizeWindow(c *gin.Context) {
	wins, err := h.desk.Minimize(c.Request.Context(), auth.UserID(c), c.Param("id"))
	h.respond(c, wins, err)
}

func (h *Handler) MaximizeWindow(c *gin.Context) {
	wins, err := h.desk.Maximize(c.Request.Context(), auth.UserID(c), c.Param("id"))
	h.respond(c, wins, err)
}

func (h *Handler) FocusWindow(c *gin.Context) {
	wins, err := h.desk.Focus(c.Request.Context(), auth.UserID(c), c.Param("id"))
	h.respond(c, wins, err)
}

func (h *Handler) MoveWindow(c *gin.Context) {
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	wins, err := h.desk.Move(c.Request.Context(), auth.UserID(c), c.Param("id"), window.Point{X: *req.X, Y: *req.Y})
	h.respond(c, wins, err)
}

func (h *Handler) ResizeWindow(c *gin.Context) {
	var req sizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	size := window.ClampSize(window.Size{Width: *req.Width, Height: *req.Height})
	wins, err := h.desk.Resize(c.Request.Context(), auth.UserID(c), c.Param("id"), size)
	h.respond(c, wins, err)
}

func (h *Handler) Pointer(c *gin.Context) {
	var req pointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	st, err := h.desk.Pointer(c.Request.Context(), auth.UserID(c), c.Param("id"), service.PointerEvent{
		Phase:  req.Phase,
		Target: interaction.Target(req.Target),
		Point:  window.Point{X: req.X, Y: req.Y},
	})
	if err != nil {
		h.respond(c, nil, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) respond(c *gin.Context, wins []window.Window, err error) {
	switch {
	case err == nil:
		if wins == nil {
			wins = []window.Window{}
		}
		c.JSON(http.StatusOK, windowsResponse{Windows: wins})
	case errors.Is(err, service.ErrWindowNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "window not found"})
	case errors.Is(err, service.ErrUnknownApp):
		c.JSON(http.StatusNotFound, gin.H{"error": "app not found"})
	case errors.Is(err, service.ErrAppForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
	case errors.Is(err, service.ErrInvalidPhase):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error("desktop request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "desktop update failed"})
	}
}
