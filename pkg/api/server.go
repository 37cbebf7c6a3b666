package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/HorseArcher567/watchtower/pkg/api/middleware"
	"github.com/HorseArcher567/watchtower/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Option 用于自定义 HTTP Server 的行为。
type Option func(s *Server)

// WithLogger 使用已有的 logger 实例，不再从 context 中取。
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithEngine 使用外部构造好的 gin.Engine。
// 默认引擎由 Server 挂好 Recovery/Logging 中间件，节点在其上再挂
// metrics 中间件和注册表路由；自带引擎时这些中间件由调用方负责。
func WithEngine(engine *gin.Engine) Option {
	return func(s *Server) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// Server 封装 Gin HTTP 服务的生命周期。
type Server struct {
	config *ServerConfig

	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener

	log *slog.Logger
}

// NewServer 创建 HTTP API 服务器。
// 从 context 中获取 logger，如果没有则使用 slog.Default()。
func NewServer(ctx context.Context, cfg *ServerConfig, opts ...Option) *Server {
	if cfg == nil {
		panic("api: server config is nil")
	}

	log := logger.Component(logger.FromContext(ctx), "api.server").With("appName", cfg.AppName)

	s := &Server{
		config: cfg,
		log:    log,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.engine == nil {
		mode := cfg.Mode
		if mode == "" {
			mode = gin.ReleaseMode
		}
		gin.SetMode(mode)

		engine := gin.New()
		engine.Use(
			middleware.Recovery(),
			middleware.Logging(),
		)
		s.engine = engine
	}

	return s
}

// Engine 返回内部的 gin.Engine，便于注册路由和中间件。
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Use 向 Engine 添加中间件。
func (s *Server) Use(middlewares ...gin.HandlerFunc) {
	s.engine.Use(middlewares...)
}

// Start 启动 HTTP 服务器，监听成功后立即返回。
// 优雅关闭由调用方通过 Shutdown 触发。
func (s *Server) Start() error {
	if s.config.Addr == "" {
		return fmt.Errorf("api: listen address is empty")
	}

	lis, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("api: failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listener = lis

	s.httpServer = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.log.Info("starting api server", "addr", s.config.Addr)

	go func() {
		if err := s.httpServer.Serve(lis); err != nil && err != http.ErrServerClosed {
			s.log.Error("api server stopped", "error", err)
		}
	}()

	return nil
}

// Addr 返回实际监听地址（端口为 0 时由系统分配）。
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.config.Addr
	}
	return s.listener.Addr().String()
}

// Shutdown 优雅关闭 HTTP 服务器。
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	s.log.Info("shutting down api server gracefully")
	return s.httpServer.Shutdown(ctx)
}
