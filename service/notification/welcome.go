package notification

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/events"
	"github.com/Xushengqwer/starter_hub/i18n"
	"github.com/Xushengqwer/starter_hub/models/enums"
	"github.com/Xushengqwer/starter_hub/repository/mysql"
)

// WelcomeMailer 订阅用户注册事件，为留了邮箱的新用户发送欢迎邮件。
type WelcomeMailer struct {
	dispatcher Dispatcher
	tenantRepo mysql.TenantRepository
	translator i18n.Translator
	lang       string
	logger     *zap.Logger
}

func NewWelcomeMailer(dispatcher Dispatcher, tenantRepo mysql.TenantRepository, translator i18n.Translator, lang string, logger *zap.Logger) *WelcomeMailer {
	return &WelcomeMailer{
		dispatcher: dispatcher,
		tenantRepo: tenantRepo,
		translator: translator,
		lang:       lang,
		logger:     logger,
	}
}

// Subscribe 把 WelcomeMailer 挂到事件总线上。
func (m *WelcomeMailer) Subscribe(bus *events.Bus) error {
	return bus.OnUserRegistered(m.handle)
}

func (m *WelcomeMailer) handle(evt events.UserRegistered) {
	const operation = "WelcomeMailer.handle"
	if evt.Email == "" {
		return
	}

	// 事件处理脱离了请求的生命周期，使用独立的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tenantName := evt.TenantID
	if tenant, err := m.tenantRepo.GetTenantByID(ctx, evt.TenantID); err == nil {
		tenantName = tenant.Name
	} else {
		m.logger.Warn("查询租户名称失败，使用租户 ID", zap.String("operation", operation), zap.String("tenantID", evt.TenantID), zap.Error(err))
	}
	name := evt.Nickname
	if name == "" {
		name = evt.Email
	}

	args := map[string]any{"tenant": tenantName, "name": name}
	_, err := m.dispatcher.Dispatch(ctx, DispatchRequest{
		TenantID:  evt.TenantID,
		UserID:    evt.UserID,
		Channel:   enums.ChannelEmail,
		Recipient: evt.Email,
		Subject:   m.translator.Translate("mail.welcome.subject", i18n.Options{Lang: m.lang, Args: args}),
		Body:      m.translator.Translate("mail.welcome.body", i18n.Options{Lang: m.lang, Args: args}),
	})
	if err != nil {
		m.logger.Error("发送欢迎邮件失败", zap.String("operation", operation), zap.String("userID", evt.UserID), zap.Error(err))
	}
}
