package controller

import (
	"net/http"

	commonenums "github.com/Xushengqwer/go-common/models/enums"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/config"
	"github.com/Xushengqwer/starter_hub/middleware"
	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/models/vo"
	"github.com/Xushengqwer/starter_hub/response"
	"github.com/Xushengqwer/starter_hub/service/login/auth"
	"github.com/Xushengqwer/starter_hub/utils"
)

// AccountController 处理账号密码注册与登录。
type AccountController struct {
	accountService auth.AccountService
	normalizer     *response.Normalizer
	logger         *zap.Logger
	cookieConfig   config.CookieConfig
}

// NewAccountController 创建 AccountController。
func NewAccountController(
	accountService auth.AccountService,
	normalizer *response.Normalizer,
	logger *zap.Logger,
	cookieCfg config.CookieConfig,
) *AccountController {
	return &AccountController{
		accountService: accountService,
		normalizer:     normalizer,
		logger:         logger,
		cookieConfig:   cookieCfg,
	}
}

// RegisterHandler 账号密码注册
// @Summary 账号密码注册
// @Description 在 X-Tenant-ID 指定的租户内创建账号，成功后发布 user:registered 事件（有邮箱时发送欢迎邮件）。
// @Tags 账号密码认证
// @Accept json
// @Produce json
// @Param X-Tenant-ID header string true "租户 ID"
// @Param body body dto.AccountRegisterData true "注册信息"
// @Success 201 {object} docs.SwaggerUserinfoResponse "注册成功"
// @Failure 400 {object} docs.SwaggerValidationErrorResponse "参数错误或两次密码不一致"
// @Failure 409 {object} docs.SwaggerErrorResponse "账号已存在"
// @Router /api/v1/starter-hub/account/register [post]
func (ctrl *AccountController) RegisterHandler(c *gin.Context) (any, error) {
	var data dto.AccountRegisterData
	if err := bindJSON(c, &data); err != nil {
		return nil, err
	}
	return ctrl.accountService.Register(c.Request.Context(), middleware.TenantFrom(c), data)
}

// LoginHandler 账号密码登录
// @Summary 账号密码登录
// @Description Web 端的刷新令牌写入 HttpOnly Cookie，不出现在响应体中。
// @Tags 账号密码认证
// @Accept json
// @Produce json
// @Param X-Tenant-ID header string true "租户 ID"
// @Param X-Platform header string false "客户端平台" Enums(web, app) default(web)
// @Param body body dto.AccountLoginData true "登录信息"
// @Success 200 {object} docs.SwaggerLoginResponse "登录成功"
// @Failure 401 {object} docs.SwaggerErrorResponse "账号不存在或密码错误"
// @Failure 403 {object} docs.SwaggerErrorResponse "账号已被禁用"
// @Router /api/v1/starter-hub/account/login [post]
func (ctrl *AccountController) LoginHandler(c *gin.Context) (any, error) {
	const operation = "AccountController.LoginHandler"

	platform, err := platformOf(c)
	if err != nil {
		return nil, err
	}
	var data dto.AccountLoginData
	if err := bindJSON(c, &data); err != nil {
		return nil, err
	}

	user, tokens, err := ctrl.accountService.Login(c.Request.Context(), middleware.TenantFrom(c), data, platform)
	if err != nil {
		return nil, err
	}
	ctrl.logger.Debug("账号登录成功",
		zap.String("operation", operation),
		zap.String("userID", user.UserID),
		zap.Any("platform", platform),
	)
	return vo.LoginResponse{User: user, Token: deliverRefreshToken(c, ctrl.cookieConfig, platform, tokens)}, nil
}

// deliverRefreshToken Web 端把刷新令牌写入 Cookie 并从响应体中移除。
func deliverRefreshToken(c *gin.Context, cfg config.CookieConfig, platform commonenums.Platform, tokens vo.TokenPair) vo.TokenPair {
	if platform == commonenums.PlatformWeb && tokens.RefreshToken != "" {
		utils.SetRefreshTokenCookie(c, cfg, tokens.RefreshToken)
		tokens.RefreshToken = ""
	}
	return tokens
}

// RegisterRoutes 注册账号密码相关路由，两个接口都在租户内匿名访问并限流。
func (ctrl *AccountController) RegisterRoutes(group *gin.RouterGroup, guards Guards) {
	account := group.Group("/account", guards.RateLimit, guards.Tenant)
	{
		account.POST("/register", ctrl.normalizer.Handle(response.Route{
			Status:     http.StatusCreated,
			MessageKey: "auth.registered",
		}, ctrl.RegisterHandler))
		account.POST("/login", ctrl.normalizer.Handle(response.Route{MessageKey: "auth.loggedIn"}, ctrl.LoginHandler))
	}
}
