package middlewares

import (
	"log/slog"
	"net/http"
	"time"

	"datashorts/internal/apis/dtos"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request through slog
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// Recovery turns a panic into a 500 with the usual response envelope
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Recovered from panic", "path", c.Request.URL.Path, "panic", r)
				errorMsg := "Internal server error"
				c.AbortWithStatusJSON(http.StatusInternalServerError, dtos.Response{
					Success: false,
					Error:   &errorMsg,
				})
			}
		}()
		c.Next()
	}
}
