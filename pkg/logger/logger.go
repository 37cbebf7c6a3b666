// Package logger 构造 watchtower 的 slog 日志器，并约定各组件统一通过
// Component 打上 component 属性，保证节点和客户端的日志可以按组件过滤。
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/HorseArcher567/watchtower/pkg/logger/rotate"
)

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// New 根据配置创建一个新的 slog.Logger。
// 输出目标是文件时自动启用按天轮转，返回的 io.Closer 由调用方负责关闭；
// stdout/stderr 输出时 closer 为 nil。
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	cfg = cfg.withDefaults()

	level, ok := levels[strings.ToLower(cfg.Level)]
	if !ok {
		return nil, nil, fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	var (
		writer io.Writer
		closer io.Closer
		err    error
	)
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		writer, closer, err = rotate.New(rotate.Config{
			Filename: cfg.Output,
			MaxAge:   cfg.MaxAge,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	case "text":
		handler = slog.NewTextHandler(writer, opts)
	default:
		if closer != nil {
			_ = closer.Close()
		}
		return nil, nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}

	return slog.New(handler), closer, nil
}

// Component 返回带 component 属性的子 logger。
// log 为 nil 时退回 slog.Default()，因此组件构造函数可以直接透传可选的
// logger 参数。registry、dispatcher、client 等都经由这里取 logger。
func Component(log *slog.Logger, name string) *slog.Logger {
	if log == nil {
		log = slog.Default()
	}
	return log.With("component", name)
}

func (c Config) withDefaults() Config {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
	return c
}
