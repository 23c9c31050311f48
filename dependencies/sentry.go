package dependencies

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/config"
	"github.com/Xushengqwer/starter_hub/constants"
)

// InitSentry 初始化 Sentry，DSN 为空时返回 nil Hub，错误上报退化为只记日志。
// 返回的 flush 在进程退出前调用，确保缓冲中的事件发送出去。
func InitSentry(cfg *config.SentryConfig, environment string, logger *zap.Logger) (*sentry.Hub, func(), error) {
	if cfg.DSN == "" {
		logger.Info("未配置 Sentry DSN，错误上报已禁用")
		return nil, func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      environment,
		Release:          constants.ServiceName + "@" + constants.ServiceVersion,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("初始化 Sentry 失败: %w", err)
	}
	logger.Info("Sentry 初始化成功", zap.String("environment", environment))
	return sentry.CurrentHub(), func() { sentry.Flush(2 * time.Second) }, nil
}
