package bootstrap

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/smithos/smithos-backend/config"
)

func TestConfigureGin(t *testing.T) {
	t.Cleanup(func() { gin.SetMode(gin.TestMode) })

	for env, want := range map[string]string{
		"production":  gin.ReleaseMode,
		"test":        gin.TestMode,
		"development": gin.DebugMode,
	} {
		ConfigureGin(&config.Config{App: config.AppConfig{Environment: env}})
		assert.Equal(t, want, gin.Mode(), env)
	}
}
