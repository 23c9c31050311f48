package initialization

import (
	"fmt"

	"github.com/Xushengqwer/starter_hub/middleware"
	"github.com/Xushengqwer/starter_hub/querybuilder"
	"github.com/Xushengqwer/starter_hub/repository/mysql"
	"github.com/Xushengqwer/starter_hub/repository/redis"
	"github.com/Xushengqwer/starter_hub/response"
	"github.com/Xushengqwer/starter_hub/service/login/auth"
	"github.com/Xushengqwer/starter_hub/service/notification"
	"github.com/Xushengqwer/starter_hub/service/post"
	"github.com/Xushengqwer/starter_hub/service/profile"
	"github.com/Xushengqwer/starter_hub/service/tenant"
	"github.com/Xushengqwer/starter_hub/service/token"
	"github.com/Xushengqwer/starter_hub/service/upload"
	"github.com/Xushengqwer/starter_hub/service/userManage"
)

// AppServices 封装了应用所需的所有服务层实例，以及路由层直接使用的横切组件。
type AppServices struct {
	Tenant        tenant.TenantService
	Account       auth.AccountService
	Phone         auth.PhoneAuthService
	Token         token.AuthTokenService
	Profile       profile.UserProfileService
	UserManage    userManage.UserManageService
	Post          post.PostService
	Upload        upload.UploadService
	Notification  notification.NotificationService
	Normalizer    *response.Normalizer
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter

	// 后台任务，由 main 负责启动和停止
	Worker         *notification.Worker
	RetryScheduler *notification.RetryScheduler
}

// SetupServices 初始化所有仓库层和服务层实例，并挂好事件订阅。
func SetupServices(deps *AppDependencies) (*AppServices, error) {
	cfg := deps.Config
	logger := deps.Logger.Logger()

	// 1. 仓库
	tenantRepo := mysql.NewTenantRepository(deps.DB)
	identityRepo := mysql.NewIdentityRepository(deps.DB)
	userRepo := mysql.NewUserRepository(deps.DB)
	profileRepo := mysql.NewProfileRepository(deps.DB)
	postRepo := mysql.NewPostRepository(deps.DB)
	notificationRepo := mysql.NewNotificationRepository(deps.DB)

	codeRepo := redis.NewCodeRepo(deps.RedisClient)
	tokenBlackRepo := redis.NewTokenBlacklistRepo(deps.RedisClient)
	queue := redis.NewNotificationQueue(deps.RedisClient)

	// 2. 查询构建器全局默认值，各服务再合并自己的允许列表
	queryDefaults := querybuilder.Options{
		DefaultLimit: cfg.QueryConfig.DefaultLimit,
		MaxLimit:     cfg.QueryConfig.MaxLimit,
	}

	// 3. 响应规范化器
	normalizerMetrics, err := response.NewMetrics(deps.Registry)
	if err != nil {
		return nil, fmt.Errorf("注册响应指标失败: %w", err)
	}
	var reporter response.Reporter = response.NopReporter{}
	if deps.SentryHub != nil {
		reporter = response.NewSentryReporter(deps.SentryHub)
	}
	normalizer := response.NewNormalizer(deps.I18n, logger,
		response.WithDebug(cfg.AppConfig.Debug),
		response.WithReporter(reporter),
		response.WithMetrics(normalizerMetrics),
	)

	// 4. 通知：服务、投递 worker、重试任务、欢迎邮件
	notificationService := notification.NewNotificationService(notificationRepo, userRepo, queue, queryDefaults, logger)
	deliveryMetrics, err := notification.NewMetrics(deps.Registry)
	if err != nil {
		return nil, fmt.Errorf("注册通知指标失败: %w", err)
	}
	worker := notification.NewWorker(notificationRepo, queue, deps.EmailSender, deps.SMSClient, deliveryMetrics, cfg.NotificationConfig, logger)
	retryScheduler, err := notification.NewRetryScheduler(notificationRepo, queue, cfg.NotificationConfig, logger)
	if err != nil {
		return nil, err
	}
	welcome := notification.NewWelcomeMailer(notificationService, tenantRepo, deps.I18n, cfg.I18nConfig.DefaultLanguage, logger)
	if err := welcome.Subscribe(deps.Bus); err != nil {
		return nil, err
	}
	if _, err := post.SubscribePublishedCounter(deps.Bus, deps.Registry); err != nil {
		return nil, fmt.Errorf("注册帖子指标失败: %w", err)
	}

	// 5. 业务服务
	tenantService := tenant.NewTenantService(tenantRepo, queryDefaults, logger)

	accountService := auth.NewAccountService(
		identityRepo,
		userRepo,
		profileRepo,
		deps.JwtToken,
		deps.Bus,
		deps.DB,
		logger,
	)

	phoneService := auth.NewPhoneAuthService(
		identityRepo,
		userRepo,
		profileRepo,
		codeRepo,
		notificationService,
		deps.I18n,
		deps.JwtToken,
		deps.Bus,
		deps.DB,
		logger,
	)

	tokenService := token.NewAuthTokenService(tokenBlackRepo, userRepo, deps.JwtToken, logger)
	profileService := profile.NewUserProfileService(userRepo, profileRepo, identityRepo, logger)
	userService := userManage.NewUserManageService(userRepo, identityRepo, profileRepo, deps.DB, queryDefaults, logger)
	postService := post.NewPostService(postRepo, deps.DB, deps.Bus, queryDefaults, logger)
	uploadService := upload.NewUploadService(deps.Storage, &cfg.StorageConfig, logger)

	// 6. 中间件组件
	authenticator := middleware.NewAuthenticator(deps.JwtToken, tokenBlackRepo, normalizer, logger)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitConfig, normalizer)

	return &AppServices{
		Tenant:         tenantService,
		Account:        accountService,
		Phone:          phoneService,
		Token:          tokenService,
		Profile:        profileService,
		UserManage:     userService,
		Post:           postService,
		Upload:         uploadService,
		Notification:   notificationService,
		Normalizer:     normalizer,
		Authenticator:  authenticator,
		RateLimiter:    rateLimiter,
		Worker:         worker,
		RetryScheduler: retryScheduler,
	}, nil
}
