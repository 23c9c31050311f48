package notification

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/config"
	"github.com/Xushengqwer/starter_hub/repository/mysql"
	"github.com/Xushengqwer/starter_hub/repository/redis"
)

const retryBatchSize = 100

// RetryScheduler 定时把失败且未超过最大尝试次数的通知重新放回队列。
type RetryScheduler struct {
	notificationRepo mysql.NotificationRepository
	queue            redis.NotificationQueue
	maxAttempts      int
	cron             *cron.Cron
	logger           *zap.Logger
}

func NewRetryScheduler(notificationRepo mysql.NotificationRepository, queue redis.NotificationQueue, cfg config.NotificationConfig, logger *zap.Logger) (*RetryScheduler, error) {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	schedule := cfg.RetrySchedule
	if schedule == "" {
		schedule = "@every 1m"
	}

	s := &RetryScheduler{
		notificationRepo: notificationRepo,
		queue:            queue,
		maxAttempts:      maxAttempts,
		cron:             cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:           logger,
	}
	if _, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.logger.Error("通知重试任务执行失败", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("无效的重试调度表达式 %q: %w", schedule, err)
	}
	return s, nil
}

func (s *RetryScheduler) Start() {
	s.cron.Start()
	s.logger.Info("通知重试任务已启动")
}

// Stop 停止调度并等待正在执行的任务结束。
func (s *RetryScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("通知重试任务已停止")
}

// Sweep 执行一次重试扫描，返回重新入队的数量。
func (s *RetryScheduler) Sweep(ctx context.Context) (int, error) {
	const operation = "NotificationRetry.Sweep"

	ids, err := s.notificationRepo.ListRetryable(ctx, s.maxAttempts, retryBatchSize)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", operation, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	reset, err := s.notificationRepo.ResetToPending(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", operation, err)
	}
	if len(reset) == 0 {
		return 0, nil
	}
	if err := s.queue.Enqueue(ctx, reset...); err != nil {
		// 已重置为 pending 却没有入队的通知不会再被扫描到，回写为失败等下一轮
		if markErr := s.notificationRepo.RevertToFailed(ctx, reset, "requeue: "+err.Error()); markErr != nil {
			s.logger.Error("回写通知失败状态失败", zap.String("operation", operation), zap.Error(markErr))
		}
		return 0, fmt.Errorf("%s: 重新入队失败: %w", operation, err)
	}

	s.logger.Info("失败通知已重新入队", zap.String("operation", operation), zap.Int("count", len(reset)))
	return len(reset), nil
}
