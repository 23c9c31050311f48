package controller

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/middleware"
	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/models/vo"
	"github.com/Xushengqwer/starter_hub/response"
	"github.com/Xushengqwer/starter_hub/service/profile"
)

// UserProfileController 处理当前登录用户的账号与资料接口（/me）。
type UserProfileController struct {
	profileService profile.UserProfileService
	normalizer     *response.Normalizer
	logger         *zap.Logger
}

// NewUserProfileController 创建 UserProfileController。
func NewUserProfileController(profileService profile.UserProfileService, normalizer *response.Normalizer, logger *zap.Logger) *UserProfileController {
	return &UserProfileController{
		profileService: profileService,
		normalizer:     normalizer,
		logger:         logger,
	}
}

// GetMyAccountHandler 获取我的账号详情
// @Summary 获取我的账号详情
// @Description 返回账号、资料和已绑定的登录方式，不含任何凭证。
// @Tags 个人资料
// @Produce json
// @Security BearerAuth
// @Success 200 {object} docs.SwaggerMyAccountResponse "成功"
// @Failure 404 {object} docs.SwaggerErrorResponse "用户不存在"
// @Router /api/v1/starter-hub/me/profile [get]
func (ctrl *UserProfileController) GetMyAccountHandler(c *gin.Context) (any, error) {
	claims, err := claimsOf(c)
	if err != nil {
		return nil, err
	}
	return ctrl.profileService.GetMyAccount(c.Request.Context(), middleware.TenantFrom(c), claims.UserID)
}

// UpdateMyProfileHandler 更新我的资料
// @Summary 更新我的资料
// @Description 只更新请求中出现的字段；avatar_key 必须是本人通过 /uploads/presign 获得的头像 key。
// @Tags 个人资料
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.UpdateProfileDTO true "资料字段"
// @Success 200 {object} docs.SwaggerProfileResponse "更新成功"
// @Failure 400 {object} docs.SwaggerValidationErrorResponse "参数错误"
// @Failure 403 {object} docs.SwaggerErrorResponse "头像 key 不属于当前用户"
// @Router /api/v1/starter-hub/me/profile [put]
func (ctrl *UserProfileController) UpdateMyProfileHandler(c *gin.Context) (any, error) {
	claims, err := claimsOf(c)
	if err != nil {
		return nil, err
	}
	var data dto.UpdateProfileDTO
	if err := bindJSON(c, &data); err != nil {
		return nil, err
	}
	return ctrl.profileService.UpdateMyProfile(c.Request.Context(), middleware.TenantFrom(c), claims.UserID, data)
}

// ChangePasswordHandler 修改密码
// @Summary 修改密码
// @Tags 个人资料
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ChangePasswordDTO true "旧密码与新密码"
// @Success 200 {object} docs.SwaggerEmptyResponse "修改成功"
// @Failure 400 {object} docs.SwaggerErrorResponse "两次密码不一致"
// @Failure 401 {object} docs.SwaggerErrorResponse "旧密码错误"
// @Router /api/v1/starter-hub/me/password [put]
func (ctrl *UserProfileController) ChangePasswordHandler(c *gin.Context) (any, error) {
	claims, err := claimsOf(c)
	if err != nil {
		return nil, err
	}
	var data dto.ChangePasswordDTO
	if err := bindJSON(c, &data); err != nil {
		return nil, err
	}
	return nil, ctrl.profileService.ChangePassword(c.Request.Context(), middleware.TenantFrom(c), claims.UserID, data)
}

// ListIdentitiesHandler 我的登录方式
// @Summary 我的登录方式
// @Tags 个人资料
// @Produce json
// @Security BearerAuth
// @Success 200 {object} docs.SwaggerIdentityListResponse "成功"
// @Router /api/v1/starter-hub/me/identities [get]
func (ctrl *UserProfileController) ListIdentitiesHandler(c *gin.Context) (any, error) {
	claims, err := claimsOf(c)
	if err != nil {
		return nil, err
	}
	return ctrl.profileService.ListIdentities(c.Request.Context(), middleware.TenantFrom(c), claims.UserID)
}

// RegisterRoutes 注册 /me 下的资料路由，全部需要登录。
func (ctrl *UserProfileController) RegisterRoutes(group *gin.RouterGroup, guards Guards) {
	me := group.Group("/me", guards.Auth, guards.Tenant)
	{
		me.GET("/profile", ctrl.normalizer.Handle(response.Route{
			Shape: func() any { return &vo.MyAccountDetailVO{} },
		}, ctrl.GetMyAccountHandler))
		me.PUT("/profile", ctrl.normalizer.Handle(response.Route{
			MessageKey: "users.profileUpdated",
			Shape:      func() any { return &vo.ProfileVO{} },
		}, ctrl.UpdateMyProfileHandler))
		me.PUT("/password", ctrl.normalizer.Handle(response.Route{MessageKey: "users.passwordChanged"}, ctrl.ChangePasswordHandler))
		me.GET("/identities", ctrl.normalizer.Handle(response.Route{
			Shape: func() any { return &[]vo.IdentityVO{} },
		}, ctrl.ListIdentitiesHandler))
	}
}
