package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	sharedCore "github.com/Xushengqwer/go-common/core"
	sharedTracing "github.com/Xushengqwer/go-common/core/tracing"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/config"
	"github.com/Xushengqwer/starter_hub/constants"
	"github.com/Xushengqwer/starter_hub/initialization"
	"github.com/Xushengqwer/starter_hub/router"
)

// @title           Starter Hub API
// @version         1.0
// @description     多租户 Starter 服务 API 文档：账号、租户、帖子、上传与通知
// @termsOfService  http://swagger.io/terms/

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8081
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// --- 配置和基础设置 ---
	var configFile string
	flag.StringVar(&configFile, "config", "config/config.development.yaml", "Path to configuration file")
	flag.Parse()

	// 本地开发时从 .env 读取环境变量，文件不存在不算错误
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("WARN: 读取 .env 失败: %v\n", err)
	}

	// 1. 加载配置
	var cfg config.StarterHubConfig
	if err := sharedCore.LoadConfig(configFile, &cfg); err != nil {
		log.Fatalf("FATAL: 加载配置失败 (%s): %v", configFile, err)
	}
	overrideFromEnv(&cfg)

	// 2. 初始化 Logger (使用可能已被覆盖的配置)
	logger, loggerErr := sharedCore.NewZapLogger(cfg.ZapConfig)
	if loggerErr != nil {
		log.Fatalf("FATAL: 初始化 ZapLogger 失败: %v", loggerErr)
	}
	defer func() {
		logger.Info("正在同步日志...")
		if err := logger.Logger().Sync(); err != nil {
			log.Printf("WARN: ZapLogger Sync 失败: %v\n", err)
		}
	}()
	logger.Info("Logger 初始化成功")

	// 3. 初始化 TracerProvider (如果启用)
	if cfg.TracerConfig.Enabled {
		tracerShutdown, err := sharedTracing.InitTracerProvider(
			constants.ServiceName,
			constants.ServiceVersion,
			cfg.TracerConfig,
		)
		if err != nil {
			logger.Fatal("初始化 TracerProvider 失败", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			logger.Info("正在关闭 TracerProvider...")
			if err := tracerShutdown(ctx); err != nil {
				logger.Error("关闭 TracerProvider 失败", zap.Error(err))
			} else {
				logger.Info("TracerProvider 已成功关闭")
			}
		}()
		logger.Info("分布式追踪已初始化")
	} else {
		logger.Info("分布式追踪已禁用")
	}

	// 4. 初始化基础依赖 (数据库, Redis, JWT, 存储, 外部客户端等)
	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	appDeps, err := initialization.SetupDependencies(rootCtx, &cfg, logger)
	if err != nil {
		logger.Fatal("初始化基础依赖失败", zap.Error(err))
	}
	defer appDeps.Close()
	logger.Info("基础依赖初始化成功")

	// 5. 初始化服务层实例
	appServices, err := initialization.SetupServices(appDeps)
	if err != nil {
		logger.Fatal("初始化服务层失败", zap.Error(err))
	}
	logger.Info("服务层初始化成功")

	// 6. 后台任务：通知投递 worker 和失败重试
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := appServices.Worker.Run(rootCtx); err != nil {
			logger.Error("通知 worker 异常退出", zap.Error(err))
		}
	}()
	appServices.RetryScheduler.Start()

	// 7. 设置路由和中间件
	setupRouter := router.SetupRouter(logger, &cfg, appDeps.I18n, appDeps.Registry, appServices)
	logger.Info("Gin 路由器设置完成")

	// 8. 配置并启动 HTTP 服务器
	serverAddress := fmt.Sprintf(":%s", cfg.ServerConfig.Port)
	srv := &http.Server{
		Addr:    serverAddress,
		Handler: otelhttp.NewHandler(setupRouter, "HTTPServer"),
	}

	go func() {
		logger.Info("HTTP 服务器开始监听", zap.String("address", serverAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器启动失败", zap.Error(err))
		}
	}()

	// 9. 等待中断信号以实现优雅关停
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	recSignal := <-quit
	logger.Info("接收到关停信号", zap.String("signal", recSignal.String()))

	// 10. 执行优雅关停：先停止接收请求，再停后台任务，最后等事件处理完
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	logger.Info("开始优雅关停 HTTP 服务器...")
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP 服务器优雅关停失败", zap.Error(err))
	} else {
		logger.Info("HTTP 服务器已成功关闭")
	}

	appServices.RetryScheduler.Stop()
	cancelRoot()
	select {
	case <-workerDone:
		logger.Info("通知 worker 已退出")
	case <-ctxShutdown.Done():
		logger.Warn("等待通知 worker 退出超时")
	}
	appDeps.Bus.Wait()

	logger.Info("服务已完全关闭")
}

// overrideFromEnv 用环境变量覆盖关键配置（生产环境部署时注入密钥等）。
// 只打印被覆盖的字段名，不打印密钥值。
func overrideFromEnv(cfg *config.StarterHubConfig) {
	log.Println("检查环境变量以覆盖 Starter Hub 的文件配置...")

	setString := func(env string, target *string, secret bool) {
		v := os.Getenv(env)
		if v == "" {
			return
		}
		*target = v
		if secret {
			log.Printf("通过环境变量覆盖了 %s\n", env)
		} else {
			log.Printf("通过环境变量覆盖了 %s: %s\n", env, v)
		}
	}
	setBool := func(env string, target *bool) {
		if b, err := strconv.ParseBool(os.Getenv(env)); err == nil {
			*target = b
			log.Printf("通过环境变量覆盖了 %s: %t\n", env, b)
		}
	}

	// Server & Log
	setString("ZAPCONFIG_LEVEL", &cfg.ZapConfig.Level, false)
	setString("GORMLOGCONFIG_LEVEL", &cfg.GormLogConfig.Level, false)
	setString("APPCONFIG_ENVIRONMENT", &cfg.AppConfig.Environment, false)
	setString("APPCONFIG_PLATFORM_TENANT_ID", &cfg.AppConfig.PlatformTenantID, false)
	setBool("APPCONFIG_DEBUG", &cfg.AppConfig.Debug)
	// Tracer
	setBool("TRACERCONFIG_ENABLED", &cfg.TracerConfig.Enabled)
	// JWT
	setString("JWTCONFIG_SECRET_KEY", &cfg.JWTConfig.SecretKey, true)
	setString("JWTCONFIG_REFRESH_SECRET", &cfg.JWTConfig.RefreshSecret, true)
	// MySQL & Redis
	setString("MYSQLCONFIG_DSN", &cfg.MySQLConfig.DSN, true)
	setString("REDISCONFIG_ADDRESS", &cfg.RedisConfig.Address, false)
	setString("REDISCONFIG_PASSWORD", &cfg.RedisConfig.Password, true)
	// 对象存储
	setString("STORAGECONFIG_PROVIDER", &cfg.StorageConfig.Provider, false)
	setString("STORAGECONFIG_S3_ACCESS_KEY_ID", &cfg.StorageConfig.S3.AccessKeyID, true)
	setString("STORAGECONFIG_S3_SECRET_ACCESS_KEY", &cfg.StorageConfig.S3.SecretAccessKey, true)
	setString("STORAGECONFIG_S3_BUCKET", &cfg.StorageConfig.S3.Bucket, false)
	setString("STORAGECONFIG_S3_ENDPOINT", &cfg.StorageConfig.S3.Endpoint, false)
	setString("COSCONFIG_SECRET_ID", &cfg.StorageConfig.COS.SecretID, true)
	setString("COSCONFIG_SECRET_KEY", &cfg.StorageConfig.COS.SecretKey, true)
	setString("COSCONFIG_BUCKET_NAME", &cfg.StorageConfig.COS.BucketName, false)
	setString("COSCONFIG_APP_ID", &cfg.StorageConfig.COS.AppID, false)
	setString("COSCONFIG_REGION", &cfg.StorageConfig.COS.Region, false)
	setString("COSCONFIG_BASE_URL", &cfg.StorageConfig.COS.BaseURL, false)
	// 通知渠道
	setString("EMAILCONFIG_API_KEY", &cfg.EmailConfig.APIKey, true)
	setString("SMSCONFIG_SECRET", &cfg.SMSConfig.Secret, true)
	setString("SENTRYCONFIG_DSN", &cfg.SentryConfig.DSN, true)
	// Cookie
	setBool("COOKIECONFIG_SECURE", &cfg.CookieConfig.Secure)
	setString("COOKIECONFIG_DOMAIN", &cfg.CookieConfig.Domain, false)
	setString("COOKIECONFIG_REFRESH_TOKEN_NAME", &cfg.CookieConfig.RefreshTokenName, false)
}
