package middleware

import (
	"github.com/HorseArcher567/watchtower/pkg/dispatcher"
	"github.com/gin-gonic/gin"
)

// Replicated 判断请求是否来自对端节点的复制扇出。
// 复制请求在注册表层不再触发新的扇出，日志里也单独标记。
func Replicated(c *gin.Context) bool {
	return c.GetHeader(dispatcher.ReplicationHeader) == "true"
}
