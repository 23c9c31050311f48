// Package events 是进程内的领域事件总线，业务服务发布事件，通知等旁路逻辑异步订阅。
package events

import (
	"fmt"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/constants"
)

// UserRegistered 在新用户（任意登录方式）首次创建后发布。
type UserRegistered struct {
	TenantID string
	UserID   string
	Nickname string
	Email    string
	Phone    string
}

// PostPublished 在帖子状态变为已发布时发布。
type PostPublished struct {
	TenantID string
	PostID   string
	AuthorID string
	Title    string
}

// Bus 包装 EventBus，约束主题和载荷类型一一对应。
type Bus struct {
	impl   EventBus.Bus
	logger *zap.Logger
}

// NewBus 创建事件总线。
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{impl: EventBus.New(), logger: logger}
}

// PublishUserRegistered 发布用户注册事件，不会阻塞调用方。
func (b *Bus) PublishUserRegistered(evt UserRegistered) {
	b.logger.Debug("发布事件", zap.String("topic", constants.TopicUserRegistered), zap.String("userID", evt.UserID))
	b.impl.Publish(constants.TopicUserRegistered, evt)
}

// PublishPostPublished 发布帖子发布事件。
func (b *Bus) PublishPostPublished(evt PostPublished) {
	b.logger.Debug("发布事件", zap.String("topic", constants.TopicPostPublished), zap.String("postID", evt.PostID))
	b.impl.Publish(constants.TopicPostPublished, evt)
}

// OnUserRegistered 异步订阅用户注册事件，同一订阅者的回调串行执行。
func (b *Bus) OnUserRegistered(fn func(UserRegistered)) error {
	if err := b.impl.SubscribeAsync(constants.TopicUserRegistered, fn, true); err != nil {
		return fmt.Errorf("events.OnUserRegistered: 订阅失败: %w", err)
	}
	return nil
}

// OnPostPublished 异步订阅帖子发布事件。
func (b *Bus) OnPostPublished(fn func(PostPublished)) error {
	if err := b.impl.SubscribeAsync(constants.TopicPostPublished, fn, true); err != nil {
		return fmt.Errorf("events.OnPostPublished: 订阅失败: %w", err)
	}
	return nil
}

// Wait 等待所有异步回调执行完毕，关停和测试时使用。
func (b *Bus) Wait() {
	b.impl.WaitAsync()
}
