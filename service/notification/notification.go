package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/apperrors"
	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/models/entities"
	"github.com/Xushengqwer/starter_hub/models/enums"
	"github.com/Xushengqwer/starter_hub/querybuilder"
	"github.com/Xushengqwer/starter_hub/repository/mysql"
	"github.com/Xushengqwer/starter_hub/repository/redis"
)

var notificationQueryOptions = querybuilder.Options{
	AllowedSortFields:   []string{"created_at", "sent_at", "read_at"},
	AllowedFilterFields: []string{"status", "channel", "created_at"},
	AllowedSearchFields: []string{"subject"},
}

// DispatchRequest 一次待投递的通知。UserID 为空表示系统通知（例如登录验证码）。
type DispatchRequest struct {
	TenantID  string
	UserID    string
	Channel   enums.NotificationChannel
	Recipient string
	Subject   string
	Body      string
}

// Dispatcher 持久化通知并放入投递队列，实际发送由 Worker 异步完成。
type Dispatcher interface {
	Dispatch(ctx context.Context, req DispatchRequest) (*entities.Notification, error)
}

// NotificationService 通知的用户侧和管理侧操作。
type NotificationService interface {
	Dispatcher

	// SendToUser 管理员向租户内用户发送通知，收件地址取自用户资料。
	SendToUser(ctx context.Context, tenantID string, data dto.SendNotificationDTO) (*entities.Notification, error)

	ListMine(ctx context.Context, tenantID, userID string, q querybuilder.QueryOptions) (*querybuilder.PaginatedResult[entities.Notification], error)
	MarkRead(ctx context.Context, tenantID, userID, notificationID string) (*entities.Notification, error)
}

type notificationService struct {
	notificationRepo mysql.NotificationRepository
	userRepo         mysql.UserRepository
	queue            redis.NotificationQueue
	queryOpts        querybuilder.Options
	now              func() time.Time
	logger           *zap.Logger
}

func NewNotificationService(
	notificationRepo mysql.NotificationRepository,
	userRepo mysql.UserRepository,
	queue redis.NotificationQueue,
	defaults querybuilder.Options,
	logger *zap.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		queue:            queue,
		queryOpts:        defaults.Merge(notificationQueryOptions),
		now:              time.Now,
		logger:           logger,
	}
}

// Dispatch 先落库再入队。
// - 入队失败时通知保持 failed 状态，由重试任务重新入队，不向调用方报错。
func (s *notificationService) Dispatch(ctx context.Context, req DispatchRequest) (*entities.Notification, error) {
	const operation = "NotificationService.Dispatch"

	n := &entities.Notification{
		ID:        uuid.NewString(),
		TenantID:  req.TenantID,
		UserID:    req.UserID,
		Channel:   req.Channel,
		Recipient: req.Recipient,
		Subject:   req.Subject,
		Body:      req.Body,
		Status:    enums.NotificationPending,
		CreatedAt: s.now(),
	}
	if err := s.notificationRepo.CreateNotification(ctx, n); err != nil {
		s.logger.Error("保存通知失败",
			zap.String("operation", operation),
			zap.String("tenantID", req.TenantID),
			zap.String("channel", string(req.Channel)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	if err := s.queue.Enqueue(ctx, n.ID); err != nil {
		s.logger.Error("通知入队失败，等待重试任务处理",
			zap.String("operation", operation),
			zap.String("notificationID", n.ID),
			zap.Error(err),
		)
		if markErr := s.notificationRepo.MarkFailed(ctx, n.ID, 0, "enqueue: "+err.Error()); markErr != nil {
			s.logger.Error("标记通知失败状态失败", zap.String("operation", operation), zap.String("notificationID", n.ID), zap.Error(markErr))
		}
		n.Status = enums.NotificationFailed
		return n, nil
	}

	s.logger.Info("通知已入队",
		zap.String("operation", operation),
		zap.String("notificationID", n.ID),
		zap.String("channel", string(n.Channel)),
	)
	return n, nil
}

func (s *notificationService) SendToUser(ctx context.Context, tenantID string, data dto.SendNotificationDTO) (*entities.Notification, error) {
	const operation = "NotificationService.SendToUser"

	user, err := s.userRepo.GetUserWithProfile(ctx, tenantID, data.UserID)
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		s.logger.Error("查询收件用户失败", zap.String("operation", operation), zap.String("userID", data.UserID), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	var recipient string
	if user.Profile != nil {
		switch data.Channel {
		case enums.ChannelEmail:
			recipient = user.Profile.Email
		case enums.ChannelSMS:
			recipient = user.Profile.Phone
		}
	}
	if recipient == "" {
		s.logger.Warn("用户没有可用的收件地址",
			zap.String("operation", operation),
			zap.String("userID", data.UserID),
			zap.String("channel", string(data.Channel)),
		)
		return nil, apperrors.Validation(apperrors.Composite("validation.required", map[string]any{"field": "recipient"}))
	}

	return s.Dispatch(ctx, DispatchRequest{
		TenantID:  tenantID,
		UserID:    user.UserID,
		Channel:   data.Channel,
		Recipient: recipient,
		Subject:   data.Subject,
		Body:      data.Body,
	})
}

func (s *notificationService) ListMine(ctx context.Context, tenantID, userID string, q querybuilder.QueryOptions) (*querybuilder.PaginatedResult[entities.Notification], error) {
	return querybuilder.Build[entities.Notification](ctx, s.notificationRepo.Lister(tenantID, userID), q, s.queryOpts)
}

func (s *notificationService) MarkRead(ctx context.Context, tenantID, userID, notificationID string) (*entities.Notification, error) {
	n, err := s.notificationRepo.MarkRead(ctx, tenantID, userID, notificationID, s.now())
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("NotificationService.MarkRead: %w", err)
	}
	return n, nil
}
