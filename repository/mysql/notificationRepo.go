package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"gorm.io/gorm"

	"github.com/Xushengqwer/starter_hub/models/entities"
	"github.com/Xushengqwer/starter_hub/models/enums"
	"github.com/Xushengqwer/starter_hub/querybuilder"
)

// NotificationRepository 定义了通知记录的数据访问接口。
// - 投递状态由 worker 维护；用户侧只读，外加标记已读。
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *entities.Notification) error

	// GetNotificationByID 供 worker 使用，不区分租户；未找到返回 commonerrors.ErrRepoNotFound。
	GetNotificationByID(ctx context.Context, id string) (*entities.Notification, error)

	// MarkSent 记录一次成功投递。
	MarkSent(ctx context.Context, id string, attempts int, sentAt time.Time) error

	// MarkFailed 记录一次失败投递及其错误信息。
	MarkFailed(ctx context.Context, id string, attempts int, lastErr string) error

	// ListRetryable 返回投递失败且尝试次数小于 maxAttempts 的通知 ID，按创建时间升序。
	ListRetryable(ctx context.Context, maxAttempts, limit int) ([]string, error)

	// ResetToPending 把失败的通知重新置为待发送，返回实际被重置的 ID，避免重复入队。
	ResetToPending(ctx context.Context, ids []string) ([]string, error)

	// RevertToFailed 把仍处于待发送的通知改回失败，尝试次数不变，用于重新入队失败的情况。
	RevertToFailed(ctx context.Context, ids []string, lastErr string) error

	// MarkRead 把用户自己的通知标记为已读，已读过的保持原时间；未找到返回 commonerrors.ErrRepoNotFound。
	MarkRead(ctx context.Context, tenantID, userID, id string, readAt time.Time) (*entities.Notification, error)

	// Lister 返回某个用户在租户内的通知列表查询委托。
	Lister(tenantID, userID string) querybuilder.CursorDelegate[entities.Notification]
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建 NotificationRepository。
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CreateNotification(ctx context.Context, n *entities.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("notificationRepo.CreateNotification: 创建通知失败: %w", err)
	}
	return nil
}

func (r *notificationRepository) GetNotificationByID(ctx context.Context, id string) (*entities.Notification, error) {
	var n entities.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		return nil, fmt.Errorf("notificationRepo.GetNotificationByID: 查询通知失败 (ID: %s): %w", id, err)
	}
	return &n, nil
}

func (r *notificationRepository) MarkSent(ctx context.Context, id string, attempts int, sentAt time.Time) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":     enums.NotificationSent,
		"attempts":   attempts,
		"sent_at":    sentAt,
		"last_error": "",
	}, "notificationRepo.MarkSent")
}

func (r *notificationRepository) MarkFailed(ctx context.Context, id string, attempts int, lastErr string) error {
	if len(lastErr) > 1024 {
		lastErr = lastErr[:1024]
	}
	return r.update(ctx, id, map[string]interface{}{
		"status":     enums.NotificationFailed,
		"attempts":   attempts,
		"last_error": lastErr,
	}, "notificationRepo.MarkFailed")
}

func (r *notificationRepository) update(ctx context.Context, id string, fields map[string]interface{}, op string) error {
	err := r.db.WithContext(ctx).Model(&entities.Notification{}).Where("id = ?", id).Updates(fields).Error
	if err != nil {
		return fmt.Errorf("%s: 更新通知状态失败 (ID: %s): %w", op, id, err)
	}
	return nil
}

func (r *notificationRepository) ListRetryable(ctx context.Context, maxAttempts, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&entities.Notification{}).
		Where("status = ? AND attempts < ?", enums.NotificationFailed, maxAttempts).
		Order("created_at").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("notificationRepo.ListRetryable: 查询可重试通知失败: %w", err)
	}
	return ids, nil
}

func (r *notificationRepository) ResetToPending(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var reset []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			result := tx.Model(&entities.Notification{}).
				Where("id = ? AND status = ?", id, enums.NotificationFailed).
				Update("status", enums.NotificationPending)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 1 {
				reset = append(reset, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("notificationRepo.ResetToPending: 重置通知状态失败: %w", err)
	}
	return reset, nil
}

func (r *notificationRepository) RevertToFailed(ctx context.Context, ids []string, lastErr string) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&entities.Notification{}).
		Where("id IN ? AND status = ?", ids, enums.NotificationPending).
		Updates(map[string]interface{}{"status": enums.NotificationFailed, "last_error": lastErr}).Error
	if err != nil {
		return fmt.Errorf("notificationRepo.RevertToFailed: 回写失败状态出错: %w", err)
	}
	return nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, tenantID, userID, id string, readAt time.Time) (*entities.Notification, error) {
	var n entities.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND user_id = ? AND id = ?", tenantID, userID, id).First(&n).Error; err != nil {
			return err
		}
		if n.ReadAt != nil {
			return nil
		}
		n.ReadAt = &readAt
		return tx.Model(&n).Update("read_at", readAt).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		return nil, fmt.Errorf("notificationRepo.MarkRead: 标记已读失败 (ID: %s): %w", id, err)
	}
	return &n, nil
}

func (r *notificationRepository) Lister(tenantID, userID string) querybuilder.CursorDelegate[entities.Notification] {
	return NewDelegate[entities.Notification](r.db, NotificationModel,
		TenantScope(NotificationModel.Table, tenantID),
		EqScope(NotificationModel.Table, "user_id", userID),
	)
}
