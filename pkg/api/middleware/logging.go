package middleware

import (
	"time"

	"github.com/HorseArcher567/watchtower/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Logging 记录每个注册表请求的概要。
// 除 method/path/status 外，还会带上路径里的 service_id、instance_id，
// 以及请求是否来自对端复制，便于区分客户端写入和复制写入。
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// 处理请求
		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		if serviceID := c.Param("service_id"); serviceID != "" {
			fields = append(fields, "service_id", serviceID)
		}
		if instanceID := c.Param("instance_id"); instanceID != "" {
			fields = append(fields, "instance_id", instanceID)
		}
		if Replicated(c) {
			fields = append(fields, "replicated", true)
		}

		logger.FromContext(c.Request.Context()).Info("http request", fields...)
	}
}
