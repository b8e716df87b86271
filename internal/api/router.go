package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the operator routes. Everything except the health check
// requires a bearer token when jwtSecret is set.
func NewRouter(h *Handler, jwtSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.Log))

	r.GET("/healthz", h.Health)

	ops := r.Group("/")
	if jwtSecret != "" {
		ops.Use(AdminAuth(jwtSecret))
	}
	{
		ops.POST("/sweeps", h.RunSweep)
		ops.GET("/sellers/:id/sent-emails", h.ListSentEmails)
		ops.POST("/sellers/:id/excluded-asins", h.ImportExcludedAsins)
	}

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
