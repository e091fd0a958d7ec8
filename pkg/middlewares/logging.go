package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	. "github.com/lutheralien/to-do-api/pkg/config"
	ct "github.com/lutheralien/to-do-api/pkg/context"
)

func LoggingMiddleware(logger *LokiLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		if raw != "" {
			path = path + "?" + raw
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.String("request_id", ct.GetCurrent(c.Request.Context()).RequestID()),
			zap.String("service", logger.ServiceName),
		}

		level := zapcore.InfoLevel
		if c.Writer.Status() >= 500 {
			level = zapcore.ErrorLevel
		}

		if level == zapcore.ErrorLevel {
			logger.Logger.Ctx(c.Request.Context()).Error("HTTP Request", fields...)
		} else {
			logger.Logger.Ctx(c.Request.Context()).Info("HTTP Request", fields...)
		}

		go logger.SendToLoki(c.Request.Context(), level, "HTTP Request", fields)
	}
}
