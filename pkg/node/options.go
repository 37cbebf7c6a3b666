package node

import (
	"log/slog"

	"github.com/HorseArcher567/watchtower/pkg/config"
)

// Option 用于自定义 Node 的初始化行为。
type Option func(n *Node)

// WithConfigPath 指定配置文件路径（默认 config.yaml）。
func WithConfigPath(path string) Option {
	return func(n *Node) {
		if path != "" {
			n.cfgPath = path
		}
	}
}

// WithConfig 直接使用已构造的配置，跳过文件加载。
func WithConfig(cfg *config.Config) Option {
	return func(n *Node) {
		if cfg != nil {
			n.cfg = cfg
		}
	}
}

// WithLogger 使用已有的 logger 实例。
func WithLogger(log *slog.Logger) Option {
	return func(n *Node) {
		if log != nil {
			n.log = log
		}
	}
}
