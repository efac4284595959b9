package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger 请求日志中间件（基于 Zap 结构化日志）
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := []zap.Field{
			zap.Int("status", statusCode),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", latency),
			zap.String("request_id", c.GetString(requestIDKey)),
		}
		if id := c.GetString("employee_id"); id != "" {
			fields = append(fields, zap.String("employee_id", id))
		}
		if action := c.Param("action"); action != "" {
			fields = append(fields, zap.String("action", action))
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()))
		}

		switch {
		case statusCode >= 500:
			logger.Error("请求处理失败", fields...)
		case statusCode >= 400:
			logger.Warn("客户端错误", fields...)
		case quiet(path):
			logger.Debug("请求完成", fields...)
		default:
			logger.Info("请求完成", fields...)
		}
	}
}

// quiet 静态资源与健康检查只在 debug 级别记录
func quiet(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/static/")
}
