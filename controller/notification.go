package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/middleware"
	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/models/vo"
	"github.com/Xushengqwer/starter_hub/response"
	"github.com/Xushengqwer/starter_hub/service/notification"
)

// NotificationController 通知接口：用户查看自己的通知，管理员向用户发送通知。
type NotificationController struct {
	notificationService notification.NotificationService
	normalizer          *response.Normalizer
	logger              *zap.Logger
}

func NewNotificationController(notificationService notification.NotificationService, normalizer *response.Normalizer, logger *zap.Logger) *NotificationController {
	return &NotificationController{notificationService: notificationService, normalizer: normalizer, logger: logger}
}

// ListMineHandler 我的通知
// @Summary 分页查询我的通知
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页条数" default(10)
// @Param filters query string false "JSON 过滤条件，例如 {\"status\":\"sent\"}"
// @Success 200 {object} docs.SwaggerNotificationPageResponse "成功"
// @Router /api/v1/starter-hub/me/notifications [get]
func (ctrl *NotificationController) ListMineHandler(c *gin.Context) (any, error) {
	claims, err := claimsOf(c)
	if err != nil {
		return nil, err
	}
	q, err := queryOf(c)
	if err != nil {
		return nil, err
	}
	return ctrl.notificationService.ListMine(c.Request.Context(), middleware.TenantFrom(c), claims.UserID, q)
}

// MarkReadHandler 标记已读
// @Summary 标记通知为已读
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Param notificationID path string true "通知 ID"
// @Success 200 {object} docs.SwaggerNotificationResponse "成功"
// @Failure 404 {object} docs.SwaggerErrorResponse "通知不存在"
// @Router /api/v1/starter-hub/me/notifications/{notificationID}/read [post]
func (ctrl *NotificationController) MarkReadHandler(c *gin.Context) (any, error) {
	claims, err := claimsOf(c)
	if err != nil {
		return nil, err
	}
	return ctrl.notificationService.MarkRead(c.Request.Context(), middleware.TenantFrom(c), claims.UserID, c.Param("notificationID"))
}

// SendHandler 发送通知
// @Summary 向租户内用户发送通知
// @Description 收件地址取自用户资料中的邮箱或手机号；通知异步投递，失败后由定时任务重试。
// @Tags 通知
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.SendNotificationDTO true "通知内容"
// @Success 202 {object} docs.SwaggerNotificationResponse "已加入发送队列"
// @Failure 400 {object} docs.SwaggerValidationErrorResponse "用户没有对应渠道的收件地址"
// @Failure 404 {object} docs.SwaggerErrorResponse "用户不存在"
// @Router /api/v1/starter-hub/notifications [post]
func (ctrl *NotificationController) SendHandler(c *gin.Context) (any, error) {
	var data dto.SendNotificationDTO
	if err := bindJSON(c, &data); err != nil {
		return nil, err
	}
	return ctrl.notificationService.SendToUser(c.Request.Context(), middleware.TenantFrom(c), data)
}

// RegisterRoutes 注册通知路由。
func (ctrl *NotificationController) RegisterRoutes(group *gin.RouterGroup, guards Guards) {
	shape := func() any { return &vo.NotificationVO{} }

	mine := group.Group("/me/notifications", guards.Auth, guards.Tenant)
	{
		mine.GET("", ctrl.normalizer.Handle(response.Route{
			Shape: func() any { return &vo.NotificationPageVO{} },
		}, ctrl.ListMineHandler))
		mine.POST("/:notificationID/read", ctrl.normalizer.Handle(response.Route{
			MessageKey: "notifications.read",
			Shape:      shape,
		}, ctrl.MarkReadHandler))
	}

	group.POST("/notifications", guards.Auth, guards.Tenant, guards.Admin,
		ctrl.normalizer.Handle(response.Route{
			Status:     http.StatusAccepted,
			MessageKey: "notifications.queued",
			Shape:      shape,
		}, ctrl.SendHandler))
}
