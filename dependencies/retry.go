package dependencies

import (
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
)

const (
	connectAttempts = 5
	connectInterval = 2 * time.Second
)

// connectWithRetry 启动时连接外部存储，失败后按固定间隔重试，返回最后一次的错误。
// 最后一次失败后不再等待。
func connectWithRetry(logger *core.ZapLogger, target string, connect func() error) error {
	var err error
	for i := 0; i < connectAttempts; i++ {
		if err = connect(); err == nil {
			return nil
		}
		logger.Warn("连接失败，准备重试",
			zap.String("target", target),
			zap.Int("retry", i+1),
			zap.Int("maxRetries", connectAttempts),
			zap.Error(err),
		)
		if i < connectAttempts-1 {
			time.Sleep(connectInterval)
		}
	}
	return err
}
