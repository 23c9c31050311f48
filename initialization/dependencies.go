package initialization

import (
	"context"
	"fmt"

	"github.com/Xushengqwer/go-common/core"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/starter_hub/config"
	"github.com/Xushengqwer/starter_hub/dependencies"
	"github.com/Xushengqwer/starter_hub/events"
	"github.com/Xushengqwer/starter_hub/i18n"
	"github.com/Xushengqwer/starter_hub/utils"
)

// AppDependencies 聚合应用运行所需的基础依赖，由 SetupDependencies 一次性创建。
type AppDependencies struct {
	Config      *config.StarterHubConfig
	Logger      *core.ZapLogger
	DB          *gorm.DB
	RedisClient *redis.Client
	JwtToken    dependencies.JWTTokenInterface
	// SMSClient / EmailSender 未配置时为 nil，对应渠道的通知会被记为投递失败
	SMSClient   dependencies.SMSClient
	EmailSender dependencies.EmailSender
	Storage     dependencies.ObjectPresigner
	// SentryHub 未配置 DSN 时为 nil
	SentryHub   *sentry.Hub
	SentryFlush func()
	I18n        *i18n.Bundle
	Bus         *events.Bus
	Registry    *prometheus.Registry
}

// SetupDependencies 按顺序初始化所有基础依赖。
// 数据库、Redis、对象存储和翻译资源是关键依赖，失败时返回错误阻止启动；
// 短信和邮件只影响通知投递，缺少配置时记录警告后继续。
func SetupDependencies(ctx context.Context, cfg *config.StarterHubConfig, logger *core.ZapLogger) (*AppDependencies, error) {
	deps := AppDependencies{Config: cfg, Logger: logger}
	zl := logger.Logger()

	// 1. 自定义校验器
	if err := utils.RegisterCustomValidators(); err != nil {
		return nil, fmt.Errorf("注册自定义验证器失败: %w", err)
	}
	logger.Info("自定义验证器注册成功")

	// 2. 翻译资源
	bundle, err := i18n.NewBundle(cfg.I18nConfig)
	if err != nil {
		return nil, fmt.Errorf("加载翻译资源失败: %w", err)
	}
	deps.I18n = bundle

	// 3. MySQL
	db, err := dependencies.InitMySQL(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}
	deps.DB = db
	logger.Info("数据库连接初始化成功")

	// 4. Redis，连接池按通知 worker 数扩容
	redisClient, err := dependencies.InitRedis(&cfg.RedisConfig, cfg.NotificationConfig.Workers, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化 Redis 失败: %w", err)
	}
	deps.RedisClient = redisClient
	logger.Info("Redis 连接初始化成功")

	// 5. JWT
	deps.JwtToken = dependencies.NewJWTUtility(&cfg.JWTConfig)

	// 6. 对象存储
	storage, err := dependencies.InitStorage(ctx, &cfg.StorageConfig, zl)
	if err != nil {
		return nil, fmt.Errorf("初始化对象存储失败: %w", err)
	}
	deps.Storage = storage
	logger.Info("对象存储初始化成功", zap.String("provider", storage.Provider()))

	// 7. 短信与邮件
	if smsClient, err := dependencies.NewSMSClient(&cfg.SMSConfig); err != nil {
		logger.Warn("短信服务未启用，短信通知将投递失败", zap.Error(err))
	} else {
		deps.SMSClient = smsClient
	}
	if sender, err := dependencies.NewSendGridSender(&cfg.EmailConfig, zl); err != nil {
		logger.Warn("邮件服务未启用，邮件通知将投递失败", zap.Error(err))
	} else {
		deps.EmailSender = sender
	}

	// 8. Sentry
	hub, flush, err := dependencies.InitSentry(&cfg.SentryConfig, cfg.AppConfig.Environment, zl)
	if err != nil {
		return nil, err
	}
	deps.SentryHub = hub
	deps.SentryFlush = flush

	// 9. 事件总线与指标注册表
	deps.Bus = events.NewBus(zl)
	deps.Registry = prometheus.NewRegistry()
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	logger.Info("所有基础依赖项初始化完成")
	return &deps, nil
}

// Close 释放需要显式关闭的连接。
func (d *AppDependencies) Close() {
	if d.RedisClient != nil {
		if err := d.RedisClient.Close(); err != nil {
			d.Logger.Warn("关闭 Redis 连接失败", zap.Error(err))
		}
	}
	if d.DB != nil {
		if sqlDB, err := d.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				d.Logger.Warn("关闭数据库连接失败", zap.Error(err))
			}
		}
	}
	if d.SentryFlush != nil {
		d.SentryFlush()
	}
}
