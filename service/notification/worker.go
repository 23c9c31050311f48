package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Xushengqwer/starter_hub/config"
	"github.com/Xushengqwer/starter_hub/dependencies"
	"github.com/Xushengqwer/starter_hub/models/entities"
	"github.com/Xushengqwer/starter_hub/models/enums"
	"github.com/Xushengqwer/starter_hub/repository/mysql"
	"github.com/Xushengqwer/starter_hub/repository/redis"
)

const (
	outcomeSent    = "sent"
	outcomeFailed  = "failed"
	outcomeSkipped = "skipped"
)

// Metrics 按渠道和结果统计通知投递次数。
type Metrics struct {
	deliveries *prometheus.CounterVec
}

// NewMetrics 创建并注册投递计数器。
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "starter_hub",
			Subsystem: "notifications",
			Name:      "deliveries_total",
			Help:      "Number of notification delivery attempts by channel and outcome.",
		}, []string{"channel", "outcome"}),
	}
	if err := reg.Register(m.deliveries); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(channel enums.NotificationChannel, outcome string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(string(channel), outcome).Inc()
}

// Worker 从 Redis 队列中取出通知 ID 并投递。
type Worker struct {
	notificationRepo mysql.NotificationRepository
	queue            redis.NotificationQueue
	email            dependencies.EmailSender
	sms              dependencies.SMSClient
	metrics          *Metrics
	cfg              config.NotificationConfig
	now              func() time.Time
	logger           *zap.Logger
}

// NewWorker 创建投递 Worker；email 或 sms 为 nil 时对应渠道的通知直接记为失败。
func NewWorker(
	notificationRepo mysql.NotificationRepository,
	queue redis.NotificationQueue,
	email dependencies.EmailSender,
	sms dependencies.SMSClient,
	metrics *Metrics,
	cfg config.NotificationConfig,
	logger *zap.Logger,
) *Worker {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Worker{
		notificationRepo: notificationRepo,
		queue:            queue,
		email:            email,
		sms:              sms,
		metrics:          metrics,
		cfg:              cfg,
		now:              time.Now,
		logger:           logger,
	}
}

// Run 启动 cfg.Workers 个消费协程，阻塞直到 ctx 被取消。
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.cfg.Workers; i++ {
		id := i
		g.Go(func() error {
			w.loop(ctx, id)
			return nil
		})
	}
	w.logger.Info("通知投递 worker 已启动", zap.Int("workers", w.cfg.Workers))
	err := g.Wait()
	w.logger.Info("通知投递 worker 已停止")
	return err
}

func (w *Worker) loop(ctx context.Context, workerID int) {
	for {
		id, err := w.queue.Dequeue(ctx, w.cfg.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, commonerrors.ErrRepoNotFound) {
				continue
			}
			w.logger.Error("从队列读取通知失败", zap.Int("worker", workerID), zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if err := w.Deliver(ctx, id); err != nil {
			w.logger.Error("投递通知出错", zap.Int("worker", workerID), zap.String("notificationID", id), zap.Error(err))
		}
	}
}

// Deliver 投递单条通知并记录结果。
// - 非 pending 状态的通知直接跳过，避免重复发送。
// - 发送失败不作为错误返回，只写入 LastError；返回的错误仅来自存储层。
func (w *Worker) Deliver(ctx context.Context, id string) error {
	const operation = "NotificationWorker.Deliver"

	n, err := w.notificationRepo.GetNotificationByID(ctx, id)
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			w.logger.Warn("队列中的通知不存在", zap.String("operation", operation), zap.String("notificationID", id))
			return nil
		}
		return fmt.Errorf("%s: %w", operation, err)
	}
	if n.Status != enums.NotificationPending {
		w.metrics.observe(n.Channel, outcomeSkipped)
		return nil
	}

	attempts := n.Attempts + 1
	if sendErr := w.send(ctx, n); sendErr != nil {
		w.metrics.observe(n.Channel, outcomeFailed)
		w.logger.Warn("通知发送失败",
			zap.String("operation", operation),
			zap.String("notificationID", n.ID),
			zap.String("channel", string(n.Channel)),
			zap.Int("attempts", attempts),
			zap.Error(sendErr),
		)
		return w.notificationRepo.MarkFailed(ctx, n.ID, attempts, sendErr.Error())
	}

	w.metrics.observe(n.Channel, outcomeSent)
	w.logger.Info("通知发送成功",
		zap.String("operation", operation),
		zap.String("notificationID", n.ID),
		zap.String("channel", string(n.Channel)),
	)
	return w.notificationRepo.MarkSent(ctx, n.ID, attempts, w.now())
}

func (w *Worker) send(ctx context.Context, n *entities.Notification) error {
	switch n.Channel {
	case enums.ChannelEmail:
		if w.email == nil {
			return errors.New("邮件渠道未配置")
		}
		return w.email.Send(ctx, dependencies.EmailMessage{
			To:      n.Recipient,
			Subject: n.Subject,
			Text:    n.Body,
		})
	case enums.ChannelSMS:
		if w.sms == nil {
			return errors.New("短信渠道未配置")
		}
		return w.sms.SendText(ctx, n.Recipient, n.Body)
	default:
		return fmt.Errorf("未知的通知渠道: %s", n.Channel)
	}
}
