package http

import "github.com/gin-gonic/gin"

// Register registers the raffle routes. admin guards the draw and reset
// endpoints.
func (h *Handler) Register(rg *gin.RouterGroup, admin ...gin.HandlerFunc) {
	rg.GET("/status", h.Status)
	rg.POST("/buy-ticket", h.BuyTicket)
	rg.GET("/history", h.History)

	guarded := rg.Group("", admin...)
	guarded.POST("/draw-winner", h.DrawWinner)
	guarded.POST("/reset", h.Reset)
}
