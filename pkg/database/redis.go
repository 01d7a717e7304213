package database

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/redis/go-redis/v9"
)

// RedisConfig describes the snapshot Redis. Commands slower than
// SlowCommand are logged at warn level.
type RedisConfig struct {
	Host        string        `env:"REDIS_HOST" envDefault:"localhost"`
	Port        int           `env:"REDIS_PORT" envDefault:"6379"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB" envDefault:"0"`
	PoolSize    int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"2s"`
	ReadTimeout time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"500ms"`
	SlowCommand time.Duration `env:"REDIS_SLOW_COMMAND" envDefault:"100ms"`
}

// DefaultRedisConfig returns the envDefault values, ignoring the process
// environment.
func DefaultRedisConfig() RedisConfig {
	var cfg RedisConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}); err != nil {
		panic(fmt.Sprintf("redis defaults: %v", err))
	}
	return cfg
}

func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c RedisConfig) options() *redis.Options {
	return &redis.Options{
		Addr:         c.Addr(),
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.ReadTimeout,
	}
}

// NewRedisClient dials Redis and pings it once. The returned client traces
// every command.
func NewRedisClient(ctx context.Context, cfg RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(cfg.options())
	rdb.AddHook(NewTracingHook(cfg.SlowCommand, logger))

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr(), err)
	}
	return rdb, nil
}
