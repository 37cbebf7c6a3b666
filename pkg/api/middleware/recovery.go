package middleware

import (
	"net/http"

	"github.com/HorseArcher567/watchtower/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Recovery 捕获处理器中的 panic，记录请求上下文后返回纯 500。
// 注册表的外部契约里 500 没有响应体，这里不输出 JSON。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.FromContext(c.Request.Context()).Error("panic recovered in http handler",
					"panic", r,
					"method", c.Request.Method,
					"path", c.FullPath(),
					"service_id", c.Param("service_id"),
					"replicated", Replicated(c),
				)

				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()

		c.Next()
	}
}
