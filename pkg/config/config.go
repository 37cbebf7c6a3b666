// Package config 加载 watchtower 节点配置
//
// 配置来自三层，后者覆盖前者：内置默认值 -> 配置文件（yaml/toml，按扩展名
// 识别）-> 环境变量（HOSTNAME、CLUSTER_NODES、USERNAME、PASSWORD）。
// 配置文件不存在不是错误，默认值加环境变量足以启动一个节点。
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/HorseArcher567/watchtower/pkg/api"
	"github.com/HorseArcher567/watchtower/pkg/logger"
)

const (
	defaultHostname = "127.0.0.1:8088"
	defaultUsername = "admin"
	defaultPassword = "password"
)

// Config 节点配置，聚合日志、HTTP 服务、集群与认证配置
type Config struct {
	Logger  logger.Config    `yaml:"logger" json:"logger" toml:"logger"`
	Server  api.ServerConfig `yaml:"server" json:"server" toml:"server"`
	Cluster ClusterConfig    `yaml:"cluster" json:"cluster" toml:"cluster"`
	Auth    AuthConfig       `yaml:"auth" json:"auth" toml:"auth"`
}

// ClusterConfig 集群配置
type ClusterConfig struct {
	// Hostname 本节点监听的 "ip:port"
	Hostname string `yaml:"hostname" json:"hostname" toml:"hostname"`

	// Nodes 集群全部节点的 "ip:port" 列表（可含本节点，由 Peers 过滤掉）
	Nodes []string `yaml:"nodes" json:"nodes" toml:"nodes"`
}

// AuthConfig 共享 Basic-Auth 凭证
type AuthConfig struct {
	Username string `yaml:"username" json:"username" toml:"username"`
	Password string `yaml:"password" json:"password" toml:"password"`
}

// Peers 返回除本节点外的集群节点列表
func (c *ClusterConfig) Peers() []string {
	var peers []string
	for _, node := range c.Nodes {
		if node != "" && node != c.Hostname {
			peers = append(peers, node)
		}
	}
	return peers
}

// Load 加载配置
//
// path 为空或文件不存在时只使用默认值和环境变量。
func Load(path string) (*Config, error) {
	cfg := &Config{
		Cluster: ClusterConfig{Hostname: defaultHostname},
		Auth:    AuthConfig{Username: defaultUsername, Password: defaultPassword},
	}

	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = cfg.Cluster.Hostname
	}
	if cfg.Server.AppName == "" {
		cfg.Server.AppName = "watchtower"
	}
	return cfg, nil
}

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// applyEnv 应用环境变量覆盖
func (c *Config) applyEnv() {
	if hostname := os.Getenv("HOSTNAME"); hostname != "" {
		c.Cluster.Hostname = hostname
	}
	if nodes := os.Getenv("CLUSTER_NODES"); nodes != "" {
		c.Cluster.Nodes = splitNodes(nodes)
	}
	if username := os.Getenv("USERNAME"); username != "" {
		c.Auth.Username = username
	}
	if password := os.Getenv("PASSWORD"); password != "" {
		c.Auth.Password = password
	}
}

func splitNodes(raw string) []string {
	var nodes []string
	for _, node := range strings.Split(raw, ",") {
		if node = strings.TrimSpace(node); node != "" {
			nodes = append(nodes, node)
		}
	}
	return nodes
}
