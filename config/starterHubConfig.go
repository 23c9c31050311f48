package config

import (
	"github.com/Xushengqwer/go-common/config"
)

// StarterHubConfig 是整个服务的配置根对象。
// 启动时由 main 加载一次，之后只读，通过指针传递给各个组件。
type StarterHubConfig struct {
	ZapConfig          config.ZapConfig     `mapstructure:"zapConfig" json:"zapConfig" yaml:"zapConfig"`
	GormLogConfig      config.GormLogConfig `mapstructure:"gormLogConfig" json:"gormLogConfig" yaml:"gormLogConfig"`
	ServerConfig       config.ServerConfig  `mapstructure:"serverConfig" json:"serverConfig" yaml:"serverConfig"`
	TracerConfig       config.TracerConfig  `mapstructure:"tracerConfig" json:"tracerConfig" yaml:"tracerConfig"`
	AppConfig          AppConfig            `mapstructure:"appConfig" json:"appConfig" yaml:"appConfig"`
	JWTConfig          JWTConfig            `mapstructure:"jwtConfig" json:"jwtConfig" yaml:"jwtConfig"`
	MySQLConfig        MySQLConfig          `mapstructure:"mySQLConfig" json:"mySQLConfig" yaml:"mySQLConfig"`
	RedisConfig        RedisConfig          `mapstructure:"redisConfig" json:"redisConfig" yaml:"redisConfig"`
	SMSConfig          SMSConfig            `mapstructure:"smsConfig" json:"smsConfig" yaml:"smsConfig"`
	EmailConfig        EmailConfig          `mapstructure:"emailConfig" json:"emailConfig" yaml:"emailConfig"`
	StorageConfig      StorageConfig        `mapstructure:"storageConfig" json:"storageConfig" yaml:"storageConfig"`
	I18nConfig         I18nConfig           `mapstructure:"i18nConfig" json:"i18nConfig" yaml:"i18nConfig"`
	QueryConfig        QueryConfig          `mapstructure:"queryConfig" json:"queryConfig" yaml:"queryConfig"`
	SentryConfig       SentryConfig         `mapstructure:"sentryConfig" json:"sentryConfig" yaml:"sentryConfig"`
	RateLimitConfig    RateLimitConfig      `mapstructure:"rateLimitConfig" json:"rateLimitConfig" yaml:"rateLimitConfig"`
	NotificationConfig NotificationConfig   `mapstructure:"notificationConfig" json:"notificationConfig" yaml:"notificationConfig"`
	CookieConfig       CookieConfig         `mapstructure:"cookieConfig" json:"cookieConfig" yaml:"cookieConfig"`
}

// AppConfig 应用级开关。
type AppConfig struct {
	// Debug 为 true 时，错误响应会附带原始错误和堆栈，仅限开发环境使用。
	Debug bool `mapstructure:"debug" json:"debug" yaml:"debug"`
	// Environment 例如 development / staging / production，同时作为 Sentry 的 environment。
	Environment string `mapstructure:"environment" json:"environment" yaml:"environment"`
	// PlatformTenantID 平台租户。只有该租户下的管理员才能管理租户本身。
	PlatformTenantID string `mapstructure:"platform_tenant_id" json:"platform_tenant_id" yaml:"platform_tenant_id"`
}
