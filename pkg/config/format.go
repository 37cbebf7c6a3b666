package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format 配置文件格式
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	// FormatUnknown 表示无法从文件扩展名推断的格式
	FormatUnknown Format = "unknown"
)

// detectFormat 根据文件扩展名检测格式
func detectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatUnknown
	}
}

// decodeFile 按扩展名解析配置文件到 target
func decodeFile(path string, target any) error {
	format := detectFormat(path)
	if format == FormatUnknown {
		return fmt.Errorf("cannot detect format from file extension: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, target); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, target); err != nil {
			return fmt.Errorf("failed to parse TOML: %w", err)
		}
	}
	return nil
}
