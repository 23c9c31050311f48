package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/redis/go-redis/v9"

	"github.com/Xushengqwer/starter_hub/constants"
)

// NotificationQueue 是待投递通知 ID 的 FIFO 队列，基于 Redis List (LPUSH + BRPOP)。
type NotificationQueue interface {
	// Enqueue 把通知 ID 推入队尾。
	Enqueue(ctx context.Context, ids ...string) error

	// Dequeue 阻塞等待并弹出一个通知 ID。
	// - 超时内队列为空时返回 commonerrors.ErrRepoNotFound。
	// - ctx 取消时返回 ctx.Err()。
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)

	// Len 返回队列长度，供监控使用。
	Len(ctx context.Context) (int64, error)
}

type notificationQueue struct {
	client *redis.Client
	key    string
}

// NewNotificationQueue 创建 NotificationQueue，使用 constants.NotificationQueueKey 作为键。
func NewNotificationQueue(client *redis.Client) NotificationQueue {
	return &notificationQueue{client: client, key: constants.NotificationQueueKey}
}

func (q *notificationQueue) Enqueue(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	if err := q.client.LPush(ctx, q.key, values...).Err(); err != nil {
		return fmt.Errorf("notificationQueue.Enqueue: 推入队列失败 (数量: %d): %w", len(ids), err)
	}
	return nil
}

func (q *notificationQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", commonerrors.ErrRepoNotFound
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("notificationQueue.Dequeue: 弹出队列失败: %w", err)
	}
	// BRPOP 返回 [key, value]
	if len(res) != 2 {
		return "", fmt.Errorf("notificationQueue.Dequeue: 非预期的返回值: %v", res)
	}
	return res[1], nil
}

func (q *notificationQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("notificationQueue.Len: 获取队列长度失败: %w", err)
	}
	return n, nil
}
