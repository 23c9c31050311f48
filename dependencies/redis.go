package dependencies

import (
	"context"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/config"
)

// InitRedis 初始化 Redis 连接，启动时按 connectWithRetry 的策略重试。
// - BRPOP 会长时间占用连接，PoolSize 需要大于通知 worker 数，见 redisOptions。
func InitRedis(cfg *config.RedisConfig, workers int, logger *core.ZapLogger) (*redis.Client, error) {
	opts := redisOptions(cfg, workers)
	client := redis.NewClient(opts)

	err := connectWithRetry(logger, "redis", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close()
		logger.Error("无法连接到 Redis", zap.Error(err), zap.String("addr", opts.Addr))
		return nil, fmt.Errorf("无法连接到 Redis (%s): %w", opts.Addr, err)
	}

	logger.Info("成功连接到 Redis", zap.String("addr", opts.Addr), zap.Int("poolSize", opts.PoolSize))
	return client, nil
}

func redisOptions(cfg *config.RedisConfig, workers int) *redis.Options {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	// 每个 worker 常驻一个阻塞连接，剩余的留给请求处理
	if floor := workers + 4; poolSize < floor {
		poolSize = floor
	}
	minIdle := cfg.MinIdleConns
	if minIdle <= 0 {
		minIdle = 3
	}
	return &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     poolSize,
		MinIdleConns: minIdle,
	}
}
