package constants

// 服务元信息，用于链路追踪、Sentry Release 和日志。
const (
	ServiceName    = "starter-hub"
	ServiceVersion = "1.0.0"
)

// Redis 键前缀
const (
	BlacklistKeyPrefix   = "blacklist"
	PhoneCodeKeyPrefix   = "captcha"
	NotificationQueueKey = "queue:notifications"
)

// gin.Context 中使用的键
const (
	ContextKeyClaims   = "auth.claims"
	ContextKeyTenantID = "tenant.id"
	ContextKeyLang     = "i18n.lang"
)

// 请求头
const (
	HeaderTenantID = "X-Tenant-ID"
	HeaderLang     = "x-lang"
)

// 领域事件主题 (EventBus)
const (
	TopicUserRegistered = "user:registered"
	TopicPostPublished  = "post:published"
)
