package middleware

import (
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingMiddleware writes one access log entry per request. Server errors are
// logged at error level, client errors at warn.
func LoggingMiddleware(l *zap.Logger, skipPaths ...string) gin.HandlerFunc {
	return ginzap.GinzapWithConfig(l, &ginzap.Config{
		TimeFormat: time.RFC3339Nano,
		UTC:        true,
		SkipPaths:  skipPaths,
		Context: func(c *gin.Context) []zapcore.Field {
			fields := []zapcore.Field{zap.String("route", c.FullPath())}
			if taskName := c.GetHeader("X-CloudTasks-TaskName"); taskName != "" {
				fields = append(fields, zap.String("task_name", taskName))
			}

			return fields
		},
		DefaultLevel: zapcore.InfoLevel,
	})
}
