package api

import (
	"net/http"

	"github.com/HorseArcher567/watchtower/pkg/api/middleware"
	"github.com/HorseArcher567/watchtower/pkg/registry"
	"github.com/gin-gonic/gin"
)

// Routes 把 HTTP 请求翻译成注册表调用
type Routes struct {
	registry *registry.ServiceRegistry
}

// NewRoutes 创建路由适配器
func NewRoutes(reg *registry.ServiceRegistry) *Routes {
	return &Routes{registry: reg}
}

// Register 在 /api/v1 下挂载全部路由，所有路由都要求 Basic-Auth
func (r *Routes) Register(engine *gin.Engine, username, password string) {
	v1 := engine.Group("/api/v1", middleware.BasicAuth(username, password))
	{
		v1.GET("/healthcheck", r.healthCheck)
		v1.GET("/services/:service_id", r.getAllInstances)
		v1.POST("/services/:service_id", r.registerInstance)
		v1.PUT("/services/:service_id/:instance_id", r.renewLease)
		v1.DELETE("/services/:service_id/:instance_id", r.cancelLease)
	}
}

func (r *Routes) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (r *Routes) getAllInstances(c *gin.Context) {
	instances, ok := r.registry.GetAllInstances(c.Param("service_id"))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, instances)
}

func (r *Routes) registerInstance(c *gin.Context) {
	var instance registry.InstanceInfo
	if err := c.ShouldBindJSON(&instance); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	if err := r.registry.RegisterInstance(c.Param("service_id"), instance, middleware.Replicated(c)); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Routes) renewLease(c *gin.Context) {
	found, err := r.registry.RenewLease(c.Param("service_id"), c.Param("instance_id"), middleware.Replicated(c))
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if !found {
		c.Status(http.StatusNotFound)
		return
	}
	c.Status(http.StatusOK)
}

func (r *Routes) cancelLease(c *gin.Context) {
	lease := r.registry.CancelLease(c.Param("service_id"), c.Param("instance_id"), middleware.Replicated(c))
	if lease == nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Status(http.StatusOK)
}
