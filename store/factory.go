package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rushteam/simrec/core"
)

// 存储后端名称
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// Config 存储后端配置
type Config struct {
	// Backend memory | redis | badger
	Backend string `koanf:"backend"`

	// Addr/DB/Prefix Redis 连接参数
	Addr   string `koanf:"addr"`
	DB     int    `koanf:"db"`
	Prefix string `koanf:"prefix"`

	// Path Badger 数据目录；为空时使用内存模式
	Path string `koanf:"path"`
}

// Open 按配置创建 Store。
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (core.Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		return NewRedisStore(ctx, cfg.Addr, cfg.DB, cfg.Prefix)
	case BackendBadger:
		return OpenBadgerStore(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", core.ErrStoreNotSupported, cfg.Backend)
	}
}
