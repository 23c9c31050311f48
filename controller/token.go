package controller

import (
	commonenums "github.com/Xushengqwer/go-common/models/enums"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/config"
	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/response"
	"github.com/Xushengqwer/starter_hub/service/token"
	"github.com/Xushengqwer/starter_hub/utils"
)

// AuthTokenController 处理令牌刷新和退出登录。
type AuthTokenController struct {
	tokenService token.AuthTokenService
	normalizer   *response.Normalizer
	logger       *zap.Logger
	cookieConfig config.CookieConfig
}

// NewAuthTokenController 创建 AuthTokenController。
func NewAuthTokenController(
	tokenService token.AuthTokenService,
	normalizer *response.Normalizer,
	logger *zap.Logger,
	cookieCfg config.CookieConfig,
) *AuthTokenController {
	return &AuthTokenController{
		tokenService: tokenService,
		normalizer:   normalizer,
		logger:       logger,
		cookieConfig: cookieCfg,
	}
}

// refreshTokenOf 优先读取请求体中的刷新令牌，其次读取 Cookie。
func (ctrl *AuthTokenController) refreshTokenOf(c *gin.Context) (string, error) {
	var req dto.RefreshTokenRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		return "", err
	}
	if req.RefreshToken != "" {
		return req.RefreshToken, nil
	}
	cookie, err := c.Cookie(ctrl.cookieConfig.TokenCookieName())
	if err != nil {
		return "", nil
	}
	return cookie, nil
}

// RefreshTokenHandler 刷新令牌
// @Summary 刷新令牌
// @Description 使用刷新令牌换取新的令牌对，旧刷新令牌随即失效。Web 端从 Cookie 读取并写回 Cookie。
// @Tags 令牌管理
// @Accept json
// @Produce json
// @Param X-Platform header string false "客户端平台" Enums(web, app) default(web)
// @Param body body dto.RefreshTokenRequest false "非 Web 端在请求体中提交刷新令牌"
// @Success 200 {object} docs.SwaggerTokenPairResponse "刷新成功"
// @Failure 401 {object} docs.SwaggerErrorResponse "刷新令牌缺失、无效或已吊销"
// @Router /api/v1/starter-hub/auth/refresh-token [post]
func (ctrl *AuthTokenController) RefreshTokenHandler(c *gin.Context) (any, error) {
	platform, err := platformOf(c)
	if err != nil {
		return nil, err
	}
	refreshToken, err := ctrl.refreshTokenOf(c)
	if err != nil {
		return nil, err
	}

	tokens, err := ctrl.tokenService.RefreshToken(c.Request.Context(), refreshToken)
	if err != nil {
		if platform == commonenums.PlatformWeb {
			utils.ClearRefreshTokenCookie(c, ctrl.cookieConfig)
		}
		return nil, err
	}
	return deliverRefreshToken(c, ctrl.cookieConfig, platform, tokens), nil
}

// LogoutHandler 退出登录
// @Summary 退出登录
// @Description 把当前访问令牌加入黑名单直到其自然过期；同时吊销提交的刷新令牌并清除 Web 端 Cookie。
// @Tags 令牌管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RefreshTokenRequest false "可选：一并吊销的刷新令牌"
// @Success 200 {object} docs.SwaggerEmptyResponse "已退出"
// @Failure 401 {object} docs.SwaggerErrorResponse "未登录"
// @Router /api/v1/starter-hub/auth/logout [post]
func (ctrl *AuthTokenController) LogoutHandler(c *gin.Context) (any, error) {
	const operation = "AuthTokenController.LogoutHandler"

	claims, err := claimsOf(c)
	if err != nil {
		return nil, err
	}
	refreshToken, err := ctrl.refreshTokenOf(c)
	if err != nil {
		return nil, err
	}
	if err := ctrl.tokenService.Logout(c.Request.Context(), claims, refreshToken); err != nil {
		return nil, err
	}
	if claims.Platform == commonenums.PlatformWeb {
		utils.ClearRefreshTokenCookie(c, ctrl.cookieConfig)
	}
	ctrl.logger.Info("用户退出登录", zap.String("operation", operation), zap.String("userID", claims.UserID))
	return nil, nil
}

// RegisterRoutes 注册令牌相关路由。刷新接口的租户来自刷新令牌本身，无需 X-Tenant-ID。
func (ctrl *AuthTokenController) RegisterRoutes(group *gin.RouterGroup, guards Guards) {
	authRoutes := group.Group("/auth")
	{
		authRoutes.POST("/refresh-token", guards.RateLimit,
			ctrl.normalizer.Handle(response.Route{MessageKey: "auth.refreshed"}, ctrl.RefreshTokenHandler))
		authRoutes.POST("/logout", guards.Auth,
			ctrl.normalizer.Handle(response.Route{MessageKey: "auth.loggedOut"}, ctrl.LogoutHandler))
	}
}
