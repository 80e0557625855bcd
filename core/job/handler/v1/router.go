package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goto/salt/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goto/batchboard/internal/telemetry"
)

// NewRouter mounts the setup api behind authentication. Health and metrics
// stay public. An empty secret disables authentication.
func NewRouter(logger log.Logger, jobHandler *JobHandler, secret []byte, db Pinger) *gin.Engine {
	router := gin.New()
	router.Use(recovery(logger), LogMiddleware(logger), ErrorHandleMiddleware())

	router.GET("/health", Health(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("")
	if len(secret) > 0 {
		api.Use(AuthMiddleware(secret))
	} else {
		logger.Warn("api authentication is disabled")
	}
	jobHandler.RegisterRoutes(api)

	return router
}

func recovery(logger log.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		telemetry.LogPanic("http", c.FullPath())
		logger.Error("recovered from panic", "path", c.FullPath(), "panic", fmt.Sprint(recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"status": false, "error": "internal error"})
	})
}
