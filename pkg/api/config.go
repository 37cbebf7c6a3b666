package api

import "time"

// ServerConfig 是 HTTP API 服务器配置。
//
// 示例配置:
// server:
//
//	appName: watchtower
//	addr: 127.0.0.1:8088
//	mode: release
//	readTimeout: 5s
//	writeTimeout: 10s
//	idleTimeout: 60s
type ServerConfig struct {
	// AppName 应用名称，用于日志等标识。
	AppName string `yaml:"appName" json:"appName" toml:"appName"`

	// Addr 监听地址 "ip:port"，默认取集群配置里的本节点地址。
	Addr string `yaml:"addr" json:"addr" toml:"addr"`

	// Mode Gin 运行模式: debug / release。
	Mode string `yaml:"mode" json:"mode" toml:"mode"`

	// ReadTimeout 读超时时间。
	ReadTimeout time.Duration `yaml:"readTimeout" json:"readTimeout" toml:"readTimeout"`

	// WriteTimeout 写超时时间。
	WriteTimeout time.Duration `yaml:"writeTimeout" json:"writeTimeout" toml:"writeTimeout"`

	// IdleTimeout 空闲连接超时时间。
	IdleTimeout time.Duration `yaml:"idleTimeout" json:"idleTimeout" toml:"idleTimeout"`
}
