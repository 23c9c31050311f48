package router

import (
	"net/http"
	"time"

	"github.com/Xushengqwer/go-common/core"
	commonMiddleware "github.com/Xushengqwer/go-common/middleware"
	commonenums "github.com/Xushengqwer/go-common/models/enums"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/config"
	"github.com/Xushengqwer/starter_hub/constants"
	"github.com/Xushengqwer/starter_hub/controller"
	_ "github.com/Xushengqwer/starter_hub/docs" // 注册 Swagger 信息
	"github.com/Xushengqwer/starter_hub/i18n"
	"github.com/Xushengqwer/starter_hub/initialization"
	"github.com/Xushengqwer/starter_hub/middleware"
)

// APIPrefix 所有业务路由的前缀
const APIPrefix = "api/v1/starter-hub"

// SetupRouter 初始化 Gin 引擎，注册全局中间件和所有业务路由。
//
// 全局中间件顺序：
//  1. otelgin：链路追踪，后续日志可以拿到 TraceID；
//  2. Normalizer.ErrorHandler：捕获 panic 和 c.Errors，统一输出错误信封；
//  3. 语言解析：错误信封的翻译依赖它，但它本身不会失败；
//  4. 访问日志（go-common）；
//  5. 请求超时：只设置上下文截止时间，处理链仍在同一个 goroutine 中执行。
//
// 鉴权、租户解析和限流按路由组挂载，见各控制器的 RegisterRoutes。
func SetupRouter(
	logger *core.ZapLogger,
	cfg *config.StarterHubConfig,
	resolver i18n.Resolver,
	registry *prometheus.Registry,
	appServices *initialization.AppServices,
) *gin.Engine {
	logger.Info("开始设置 Gin 路由...")

	router := gin.New()
	router.Use(otelgin.Middleware(constants.ServiceName))
	router.Use(appServices.Normalizer.ErrorHandler())
	router.Use(i18n.LanguageMiddleware(resolver))
	if baseLogger := logger.Logger(); baseLogger != nil {
		router.Use(commonMiddleware.RequestLoggerMiddleware(baseLogger))
	}

	norm := appServices.Normalizer
	if cfg.ServerConfig.RequestTimeout > 0 {
		requestTimeout := time.Duration(cfg.ServerConfig.RequestTimeout) * time.Second
		router.Use(middleware.RequestTimeout(requestTimeout, norm, logger.Logger()))
	}

	guards := controller.Guards{
		Auth:          appServices.Authenticator.Required(),
		OptionalAuth:  appServices.Authenticator.Optional(),
		Tenant:        middleware.ResolveTenant(appServices.Tenant, norm, logger.Logger()),
		Admin:         middleware.RequireRole(norm, commonenums.RoleAdmin),
		PlatformAdmin: middleware.RequirePlatformAdmin(norm, cfg.AppConfig.PlatformTenantID),
		RateLimit:     appServices.RateLimiter.Middleware(),
	}

	v1 := router.Group(APIPrefix)
	zl := logger.Logger()
	controllers := []interface {
		RegisterRoutes(*gin.RouterGroup, controller.Guards)
	}{
		controller.NewTenantController(appServices.Tenant, norm, zl),
		controller.NewAccountController(appServices.Account, norm, zl, cfg.CookieConfig),
		controller.NewPhoneAuthController(appServices.Phone, norm, zl, cfg.CookieConfig),
		controller.NewAuthTokenController(appServices.Token, norm, zl, cfg.CookieConfig),
		controller.NewUserProfileController(appServices.Profile, norm, zl),
		controller.NewUserManageController(appServices.UserManage, norm, zl),
		controller.NewPostController(appServices.Post, norm, zl),
		controller.NewUploadController(appServices.Upload, norm, zl),
		controller.NewNotificationController(appServices.Notification, norm, zl),
	}
	for _, ctrl := range controllers {
		ctrl.RegisterRoutes(v1, guards)
	}
	logger.Info("所有业务路由已成功注册", zap.String("prefix", APIPrefix))

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	logger.Info("Swagger UI 路由已注册，访问路径: /swagger/index.html")

	return router
}
