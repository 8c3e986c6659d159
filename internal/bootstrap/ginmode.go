package bootstrap

import (
	"github.com/gin-gonic/gin"

	"github.com/smithos/smithos-backend/config"
)

// ConfigureGin picks gin's mode from APP_ENV. Anything other than production
// or test keeps debug mode and its route listing.
func ConfigureGin(cfg *config.Config) {
	switch {
	case cfg.IsProduction():
		gin.SetMode(gin.ReleaseMode)
	case cfg.App.Environment == "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}
