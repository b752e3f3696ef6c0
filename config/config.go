// Package config 加载 simrec 的应用配置，并维护配置驱动 Pipeline 的 Node 注册表。
//
// 配置分三层叠加，后者覆盖前者：
//
//  1. 结构体默认值（Default）
//  2. YAML 配置文件（可选）
//  3. SIMREC_ 前缀的环境变量，如 SIMREC_INDEX_NLIST -> index.nlist
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"github.com/rushteam/simrec/core"
	"github.com/rushteam/simrec/embed"
	"github.com/rushteam/simrec/pkg/logging"
	"github.com/rushteam/simrec/service"
	"github.com/rushteam/simrec/store"
	"github.com/rushteam/simrec/vector"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "SIMREC_"

// ConfigPathEnvVar 指定配置文件路径的环境变量
const ConfigPathEnvVar = "SIMREC_CONFIG"

// DefaultConfigPaths 未显式指定时依次查找的配置文件
var DefaultConfigPaths = []string{
	"simrec.yaml",
	"simrec.yml",
	"config/simrec.yaml",
	"/etc/simrec/simrec.yaml",
}

// Config 应用配置
type Config struct {
	Logging logging.Config       `koanf:"logging"`
	Embed   embed.Config         `koanf:"embed"`
	Index   vector.ManagerConfig `koanf:"index"`
	Query   service.QueryConfig  `koanf:"query"`
	Store   store.Config         `koanf:"store"`

	// ArtifactsDir 索引、参考表与向量化模型的目录
	ArtifactsDir string `koanf:"artifacts_dir"`
}

// Default 返回默认配置。
func Default() *Config {
	return &Config{
		Logging:      logging.DefaultConfig(),
		Embed:        embed.DefaultConfig(),
		Index:        vector.DefaultManagerConfig(),
		Query:        service.DefaultQueryConfig(),
		Store:        store.Config{Backend: store.BackendMemory},
		ArtifactsDir: "artifacts",
	}
}

// Options 转换为引擎选项
func (c *Config) Options() service.Options {
	return service.Options{Embed: c.Embed, Index: c.Index, Query: c.Query}
}

// Load 加载配置。path 为空时依次查找 SIMREC_CONFIG 与 DefaultConfigPaths，都不存在则只用默认值与环境变量。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}
	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	// Output 不参与序列化
	cfg.Logging.Output = os.Stderr

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sections = map[string]bool{
	"logging": true,
	"embed":   true,
	"index":   true,
	"query":   true,
	"store":   true,
}

// envTransformFunc 将 SIMREC_INDEX_CPU_NLIST 转换为 index.cpu_nlist。
// 首段不是已知分组时作为顶层键，如 SIMREC_ARTIFACTS_DIR -> artifacts_dir。
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "config" {
		return ""
	}
	section, rest, ok := strings.Cut(key, "_")
	if ok && sections[section] && rest != "" {
		return section + "." + rest
	}
	return key
}

// sliceConfigPaths 环境变量中以逗号分隔的切片字段
var sliceConfigPaths = []string{
	"embed.fields",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// Validate 校验配置。
func (c *Config) Validate() error {
	if err := c.Embed.Validate(); err != nil {
		return err
	}
	idx := c.Index
	switch {
	case idx.CPUNList <= 0 || idx.CPUNProbe <= 0:
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "index.cpu_nlist and index.cpu_nprobe must be positive")
	case idx.Accelerated && (idx.NList <= 0 || idx.NProbe <= 0):
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "index.nlist and index.nprobe must be positive when acceleration is enabled")
	case idx.CPUBatch < 0 || idx.AccelBatch < 0:
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "index batch sizes must not be negative")
	case c.Query.NProbe <= 0:
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "query.nprobe must be positive")
	}
	switch c.Store.Backend {
	case store.BackendMemory, store.BackendBadger:
	case store.BackendRedis:
		if c.Store.Addr == "" {
			return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "store.addr is required for the redis backend")
		}
	default:
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, fmt.Sprintf("unknown store backend %q", c.Store.Backend))
	}
	if c.ArtifactsDir == "" {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "artifacts_dir is required")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, fmt.Sprintf("unknown log level %q", c.Logging.Level))
	}
	return nil
}
