package http

import (
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/axis/log"
)

// Logger logs every request except those to skipPaths.
func Logger(skipPaths ...string) gin.HandlerFunc {
	if len(skipPaths) == 0 {
		skipPaths = []string{defaultHealthPath, defaultMetricsPath}
	}

	return func(c *gin.Context) {
		if slices.Contains(skipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		event := log.Info().
			Str("component", "http").
			Int("status", c.Writer.Status()).
			Str("method", c.Request.Method).
			Str("uri", c.Request.RequestURI).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP())

		if requestID := c.Request.Header.Get("X-Request-Id"); requestID != "" {
			event = event.Str("request_id", requestID)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.Msg("request")
	}
}

// NewEngine returns a gin engine with recovery and request logging.
func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), Logger())
	return r
}
