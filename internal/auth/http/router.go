package http

import "github.com/gin-gonic/gin"

// Register mounts the public login routes and the routes behind requireSession.
func (h *Handler) Register(rg *gin.RouterGroup, requireSession gin.HandlerFunc) {
	rg.GET("/challenge", h.Challenge)
	rg.POST("/authenticate", h.Authenticate)

	authed := rg.Group("", requireSession)
	authed.POST("/logout", h.Logout)
	authed.GET("/me", h.Me)
	authed.PUT("/preferences", h.UpdatePreferences)
}

// RegisterAdmin mounts admin session routes. The group must already enforce
// session and admin checks.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.GET("/sessions/active", h.ActiveSessions)
}
