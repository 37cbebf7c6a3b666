// Package node 组装并运行一个 watchtower 节点。
package node

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HorseArcher567/watchtower/pkg/api"
	"github.com/HorseArcher567/watchtower/pkg/api/middleware"
	"github.com/HorseArcher567/watchtower/pkg/config"
	"github.com/HorseArcher567/watchtower/pkg/dispatcher"
	"github.com/HorseArcher567/watchtower/pkg/job"
	"github.com/HorseArcher567/watchtower/pkg/logger"
	"github.com/HorseArcher567/watchtower/pkg/metrics"
	"github.com/HorseArcher567/watchtower/pkg/registry"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// evictInterval 驱逐任务的执行间隔
	evictInterval = 15 * time.Second

	// stopTimeout 优雅关闭的总超时
	stopTimeout = 5 * time.Second

	metricsNamespace = "watchtower"
)

// BeforeRunHook 在节点启动前执行，如果返回错误将中止启动流程。
type BeforeRunHook func(ctx context.Context, n *Node) error

// ShutdownHook 在节点关闭阶段执行，即使返回错误也会继续执行后续 Hook。
type ShutdownHook func(ctx context.Context, n *Node) error

// Node 封装一个 watchtower 节点的完整生命周期。
type Node struct {
	cfgPath string
	cfg     *config.Config

	log       *slog.Logger
	logCloser io.Closer

	registry   *registry.ServiceRegistry
	dispatcher *dispatcher.Dispatcher
	scheduler  *job.Scheduler
	server     *api.Server

	ctx context.Context

	beforeRunHooks []BeforeRunHook
	shutdownHooks  []ShutdownHook
}

// New 创建一个新的 Node 实例，会立即根据 Option 完成初始化。
func New(opts ...Option) (*Node, error) {
	n := &Node{
		cfgPath: "config.yaml",
		ctx:     context.Background(),
	}

	for _, opt := range opts {
		opt(n)
	}

	if err := n.init(); err != nil {
		return nil, err
	}
	return n, nil
}

// init 完成配置加载、日志初始化和各组件创建。
func (n *Node) init() error {
	// 1. 加载配置
	if n.cfg == nil {
		cfg, err := config.Load(n.cfgPath)
		if err != nil {
			return err
		}
		n.cfg = cfg
	}

	// 2. 初始化日志
	if n.log == nil {
		log, closer, err := logger.New(n.cfg.Logger)
		if err != nil {
			return err
		}
		n.log = log
		n.logCloser = closer
		slog.SetDefault(log)
	}

	// 3. 创建带 logger 的根 context
	n.ctx = logger.WithContext(n.ctx, n.log)

	// 4. 复制扇出器与注册表
	n.dispatcher = dispatcher.New(n.cfg.Cluster.Peers(),
		n.cfg.Auth.Username, n.cfg.Auth.Password, n.log)
	n.registry = registry.New(n.dispatcher, n.log)

	// 5. 驱逐任务
	n.scheduler = job.NewScheduler(n.log)
	n.scheduler.AddJob(job.NewIntervalJob("registry-evictor", evictInterval,
		func(ctx context.Context, log *slog.Logger) error {
			return n.registry.Evict()
		}))

	// 6. HTTP 服务
	n.server = api.NewServer(n.ctx, &n.cfg.Server, api.WithLogger(n.log))
	n.mountRoutes()

	return nil
}

// mountRoutes 挂载业务路由与 /metrics。
func (n *Node) mountRoutes() {
	serverMetrics := metrics.NewServerMetrics(metricsNamespace)
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(serverMetrics)
	promReg.MustRegister(metrics.NewLeaseCollector(metricsNamespace, n.registry))

	engine := n.server.Engine()
	engine.Use(serverMetrics.MiddlewareHandler())

	api.NewRoutes(n.registry).Register(engine, n.cfg.Auth.Username, n.cfg.Auth.Password)

	engine.GET("/metrics",
		middleware.BasicAuth(n.cfg.Auth.Username, n.cfg.Auth.Password),
		gin.WrapH(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))
}

// OnBeforeRun 注册在 Run 之前执行的 Hook。
// 按注册顺序执行，遇到第一个错误将中止启动流程。
func (n *Node) OnBeforeRun(h BeforeRunHook) *Node {
	if h != nil {
		n.beforeRunHooks = append(n.beforeRunHooks, h)
	}
	return n
}

// OnShutdown 注册在节点关闭阶段执行的 Hook。
// 即使某个 Hook 返回错误，也会继续执行后续 Hook。
func (n *Node) OnShutdown(h ShutdownHook) *Node {
	if h != nil {
		n.shutdownHooks = append(n.shutdownHooks, h)
	}
	return n
}

// Registry 返回节点的注册表。
func (n *Node) Registry() *registry.ServiceRegistry {
	return n.registry
}

// Addr 返回 HTTP 服务的实际监听地址。
func (n *Node) Addr() string {
	return n.server.Addr()
}

// Start 启动节点的全部组件，监听成功后立即返回。
func (n *Node) Start() error {
	for _, h := range n.beforeRunHooks {
		if err := h(n.ctx, n); err != nil {
			return fmt.Errorf("node: before-run hook failed: %w", err)
		}
	}

	n.dispatcher.Start()

	if err := n.scheduler.Start(); err != nil {
		return err
	}

	if err := n.server.Start(); err != nil {
		return err
	}

	n.log.Info("watchtower node started",
		"addr", n.server.Addr(), "peers", n.cfg.Cluster.Peers())
	return nil
}

// Stop 优雅关闭节点：先停 HTTP 入口，再停驱逐任务和复制扇出。
func (n *Node) Stop(ctx context.Context) error {
	var firstErr error

	if err := n.server.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := n.scheduler.Stop(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := n.dispatcher.Stop(ctx); err != nil && firstErr == nil {
		firstErr = err
	}

	for _, h := range n.shutdownHooks {
		if err := h(ctx, n); err != nil {
			n.log.Error("shutdown hook failed", "error", err)
		}
	}

	if n.logCloser != nil {
		_ = n.logCloser.Close()
	}
	return firstErr
}

// Run 启动节点并阻塞，直到收到退出信号并完成优雅关闭。
func (n *Node) Run() error {
	if err := n.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	s := <-sigChan
	n.log.Info("received signal, shutting down", "signal", s.String())

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return n.Stop(ctx)
}
