package controller

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/middleware"
	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/models/vo"
	"github.com/Xushengqwer/starter_hub/response"
	"github.com/Xushengqwer/starter_hub/service/userManage"
)

// UserManageController 租户管理员的用户管理接口。
type UserManageController struct {
	userService userManage.UserManageService
	normalizer  *response.Normalizer
	logger      *zap.Logger
}

// NewUserManageController 创建 UserManageController。
func NewUserManageController(userService userManage.UserManageService, normalizer *response.Normalizer, logger *zap.Logger) *UserManageController {
	return &UserManageController{
		userService: userService,
		normalizer:  normalizer,
		logger:      logger,
	}
}

// ListUsersHandler 用户列表
// @Summary 分页查询用户
// @Description 支持 page/limit/searchQuery/sortBy/sortOrder/filters/dateFilters/include 等查询参数；默认附带 profile。
// @Tags 用户管理
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页条数" default(10)
// @Param searchQuery query string false "按昵称搜索"
// @Param sortBy query string false "排序字段" Enums(created_at, updated_at)
// @Param sortOrder query string false "排序方向" Enums(asc, desc)
// @Param filters query string false "JSON 过滤条件，例如 {\"status\":0}"
// @Success 200 {object} docs.SwaggerUserPageResponse "成功"
// @Failure 400 {object} docs.SwaggerValidationErrorResponse "查询参数错误"
// @Failure 403 {object} docs.SwaggerErrorResponse "需要管理员权限"
// @Router /api/v1/starter-hub/users [get]
func (ctrl *UserManageController) ListUsersHandler(c *gin.Context) (any, error) {
	q, err := queryOf(c)
	if err != nil {
		return nil, err
	}
	return ctrl.userService.ListUsers(c.Request.Context(), middleware.TenantFrom(c), q)
}

// GetUserHandler 用户详情
// @Summary 获取用户详情
// @Tags 用户管理
// @Produce json
// @Security BearerAuth
// @Param userID path string true "用户 ID"
// @Success 200 {object} docs.SwaggerUserResponse "成功"
// @Failure 404 {object} docs.SwaggerErrorResponse "用户不存在"
// @Router /api/v1/starter-hub/users/{userID} [get]
func (ctrl *UserManageController) GetUserHandler(c *gin.Context) (any, error) {
	return ctrl.userService.GetUser(c.Request.Context(), middleware.TenantFrom(c), c.Param("userID"))
}

// UpdateUserHandler 更新用户角色或状态
// @Summary 更新用户角色或状态
// @Tags 用户管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userID path string true "用户 ID"
// @Param body body dto.UpdateUserDTO true "角色和状态，省略表示不修改"
// @Success 200 {object} docs.SwaggerUserResponse "更新成功"
// @Failure 404 {object} docs.SwaggerErrorResponse "用户不存在"
// @Router /api/v1/starter-hub/users/{userID} [put]
func (ctrl *UserManageController) UpdateUserHandler(c *gin.Context) (any, error) {
	var data dto.UpdateUserDTO
	if err := bindJSON(c, &data); err != nil {
		return nil, err
	}
	return ctrl.userService.UpdateUser(c.Request.Context(), middleware.TenantFrom(c), c.Param("userID"), data)
}

// BlackUserHandler 拉黑用户
// @Summary 拉黑用户
// @Tags 用户管理
// @Produce json
// @Security BearerAuth
// @Param userID path string true "用户 ID"
// @Success 200 {object} docs.SwaggerEmptyResponse "已拉黑"
// @Failure 404 {object} docs.SwaggerErrorResponse "用户不存在"
// @Router /api/v1/starter-hub/users/{userID}/blacklist [post]
func (ctrl *UserManageController) BlackUserHandler(c *gin.Context) (any, error) {
	return nil, ctrl.userService.BlackUser(c.Request.Context(), middleware.TenantFrom(c), c.Param("userID"))
}

// DeleteUserHandler 删除用户
// @Summary 删除用户（软删除）
// @Description 在一个事务中软删除用户、身份和资料。
// @Tags 用户管理
// @Produce json
// @Security BearerAuth
// @Param userID path string true "用户 ID"
// @Success 200 {object} docs.SwaggerEmptyResponse "已删除"
// @Failure 404 {object} docs.SwaggerErrorResponse "用户不存在"
// @Router /api/v1/starter-hub/users/{userID} [delete]
func (ctrl *UserManageController) DeleteUserHandler(c *gin.Context) (any, error) {
	const operation = "UserManageController.DeleteUserHandler"

	claims, err := claimsOf(c)
	if err != nil {
		return nil, err
	}
	userID := c.Param("userID")
	if err := ctrl.userService.DeleteUser(c.Request.Context(), middleware.TenantFrom(c), userID); err != nil {
		return nil, err
	}
	ctrl.logger.Info("管理员删除了用户",
		zap.String("operation", operation),
		zap.String("adminID", claims.UserID),
		zap.String("userID", userID),
	)
	return nil, nil
}

// RegisterRoutes 注册 /users 路由，需要租户管理员权限。
func (ctrl *UserManageController) RegisterRoutes(group *gin.RouterGroup, guards Guards) {
	userShape := func() any { return &vo.UserVO{} }

	users := group.Group("/users", guards.Auth, guards.Tenant, guards.Admin)
	{
		users.GET("", ctrl.normalizer.Handle(response.Route{
			Shape: func() any { return &vo.UserPageVO{} },
		}, ctrl.ListUsersHandler))
		users.GET("/:userID", ctrl.normalizer.Handle(response.Route{Shape: userShape}, ctrl.GetUserHandler))
		users.PUT("/:userID", ctrl.normalizer.Handle(response.Route{
			MessageKey: "users.updated",
			Shape:      userShape,
		}, ctrl.UpdateUserHandler))
		users.POST("/:userID/blacklist", ctrl.normalizer.Handle(response.Route{MessageKey: "users.blacklisted"}, ctrl.BlackUserHandler))
		users.DELETE("/:userID", ctrl.normalizer.Handle(response.Route{MessageKey: "users.deleted"}, ctrl.DeleteUserHandler))
	}
}
