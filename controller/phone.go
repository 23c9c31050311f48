package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/config"
	"github.com/Xushengqwer/starter_hub/i18n"
	"github.com/Xushengqwer/starter_hub/middleware"
	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/response"
	"github.com/Xushengqwer/starter_hub/service/login/auth"
)

// PhoneAuthController 处理手机验证码的发送与登录（不存在则注册）。
type PhoneAuthController struct {
	phoneService auth.PhoneAuthService
	normalizer   *response.Normalizer
	logger       *zap.Logger
	cookieConfig config.CookieConfig
}

// NewPhoneAuthController 创建 PhoneAuthController。
func NewPhoneAuthController(
	phoneService auth.PhoneAuthService,
	normalizer *response.Normalizer,
	logger *zap.Logger,
	cookieCfg config.CookieConfig,
) *PhoneAuthController {
	return &PhoneAuthController{
		phoneService: phoneService,
		normalizer:   normalizer,
		logger:       logger,
		cookieConfig: cookieCfg,
	}
}

// SendCodeHandler 发送短信验证码
// @Summary 发送短信验证码
// @Description 验证码通过通知队列异步发送；同一手机号 60 秒内只能发送一次。
// @Tags 手机号认证
// @Accept json
// @Produce json
// @Param X-Tenant-ID header string true "租户 ID"
// @Param body body dto.SendCaptchaRequest true "手机号"
// @Success 202 {object} docs.SwaggerEmptyResponse "已受理"
// @Failure 429 {object} docs.SwaggerErrorResponse "发送过于频繁"
// @Failure 503 {object} docs.SwaggerErrorResponse "短信通道不可用"
// @Router /api/v1/starter-hub/phone/send-code [post]
func (ctrl *PhoneAuthController) SendCodeHandler(c *gin.Context) (any, error) {
	var data dto.SendCaptchaRequest
	if err := bindJSON(c, &data); err != nil {
		return nil, err
	}
	if err := ctrl.phoneService.SendCode(c.Request.Context(), middleware.TenantFrom(c), data.Phone, i18n.LangFrom(c)); err != nil {
		return nil, err
	}
	return nil, nil
}

// LoginOrRegisterHandler 手机号验证码登录
// @Summary 手机号验证码登录
// @Description 手机号未注册时自动创建账号，响应中的 created 为 true。
// @Tags 手机号认证
// @Accept json
// @Produce json
// @Param X-Tenant-ID header string true "租户 ID"
// @Param X-Platform header string false "客户端平台" Enums(web, app) default(web)
// @Param body body dto.PhoneLoginOrRegisterData true "手机号和验证码"
// @Success 200 {object} docs.SwaggerLoginResponse "登录成功"
// @Failure 400 {object} docs.SwaggerErrorResponse "验证码错误或已过期"
// @Failure 403 {object} docs.SwaggerErrorResponse "账号已被禁用"
// @Router /api/v1/starter-hub/phone/login [post]
func (ctrl *PhoneAuthController) LoginOrRegisterHandler(c *gin.Context) (any, error) {
	const operation = "PhoneAuthController.LoginOrRegisterHandler"

	platform, err := platformOf(c)
	if err != nil {
		return nil, err
	}
	var data dto.PhoneLoginOrRegisterData
	if err := bindJSON(c, &data); err != nil {
		return nil, err
	}

	resp, err := ctrl.phoneService.LoginOrRegister(c.Request.Context(), middleware.TenantFrom(c), data, platform)
	if err != nil {
		return nil, err
	}
	ctrl.logger.Debug("手机号登录成功",
		zap.String("operation", operation),
		zap.String("userID", resp.User.UserID),
		zap.Bool("created", resp.Created),
	)
	resp.Token = deliverRefreshToken(c, ctrl.cookieConfig, platform, resp.Token)
	return resp, nil
}

// RegisterRoutes 注册手机号认证路由。
func (ctrl *PhoneAuthController) RegisterRoutes(group *gin.RouterGroup, guards Guards) {
	phone := group.Group("/phone", guards.RateLimit, guards.Tenant)
	{
		phone.POST("/send-code", ctrl.normalizer.Handle(response.Route{
			Status:     http.StatusAccepted,
			MessageKey: "auth.codeSent",
		}, ctrl.SendCodeHandler))
		phone.POST("/login", ctrl.normalizer.Handle(response.Route{MessageKey: "auth.loggedIn"}, ctrl.LoginOrRegisterHandler))
	}
}
