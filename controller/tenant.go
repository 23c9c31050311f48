package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/models/vo"
	"github.com/Xushengqwer/starter_hub/response"
	"github.com/Xushengqwer/starter_hub/service/tenant"
)

// TenantController 平台管理员的租户管理接口。
type TenantController struct {
	tenantService tenant.TenantService
	normalizer    *response.Normalizer
	logger        *zap.Logger
}

func NewTenantController(tenantService tenant.TenantService, normalizer *response.Normalizer, logger *zap.Logger) *TenantController {
	return &TenantController{tenantService: tenantService, normalizer: normalizer, logger: logger}
}

// CreateTenantHandler 创建租户
// @Summary 创建租户
// @Tags 租户管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateTenantDTO true "租户标识与名称"
// @Success 201 {object} docs.SwaggerTenantResponse "创建成功"
// @Failure 409 {object} docs.SwaggerErrorResponse "标识已被占用"
// @Router /api/v1/starter-hub/tenants [post]
func (ctrl *TenantController) CreateTenantHandler(c *gin.Context) (any, error) {
	var data dto.CreateTenantDTO
	if err := bindJSON(c, &data); err != nil {
		return nil, err
	}
	return ctrl.tenantService.CreateTenant(c.Request.Context(), data)
}

// GetTenantHandler 租户详情
// @Summary 获取租户
// @Tags 租户管理
// @Produce json
// @Security BearerAuth
// @Param tenantID path string true "租户 ID"
// @Success 200 {object} docs.SwaggerTenantResponse "成功"
// @Failure 404 {object} docs.SwaggerErrorResponse "租户不存在"
// @Router /api/v1/starter-hub/tenants/{tenantID} [get]
func (ctrl *TenantController) GetTenantHandler(c *gin.Context) (any, error) {
	return ctrl.tenantService.GetTenant(c.Request.Context(), c.Param("tenantID"))
}

// ListTenantsHandler 租户列表
// @Summary 分页查询租户
// @Tags 租户管理
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页条数" default(10)
// @Param searchQuery query string false "按标识或名称搜索"
// @Success 200 {object} docs.SwaggerTenantPageResponse "成功"
// @Router /api/v1/starter-hub/tenants [get]
func (ctrl *TenantController) ListTenantsHandler(c *gin.Context) (any, error) {
	q, err := queryOf(c)
	if err != nil {
		return nil, err
	}
	return ctrl.tenantService.ListTenants(c.Request.Context(), q)
}

// RegisterRoutes 注册 /tenants 路由，只有平台管理员可以访问。
func (ctrl *TenantController) RegisterRoutes(group *gin.RouterGroup, guards Guards) {
	tenantShape := func() any { return &vo.TenantVO{} }

	tenants := group.Group("/tenants", guards.Auth, guards.PlatformAdmin)
	{
		tenants.POST("", ctrl.normalizer.Handle(response.Route{
			Status:     http.StatusCreated,
			MessageKey: "tenants.created",
			Shape:      tenantShape,
		}, ctrl.CreateTenantHandler))
		tenants.GET("", ctrl.normalizer.Handle(response.Route{
			Shape: func() any { return &vo.TenantPageVO{} },
		}, ctrl.ListTenantsHandler))
		tenants.GET("/:tenantID", ctrl.normalizer.Handle(response.Route{Shape: tenantShape}, ctrl.GetTenantHandler))
	}
}
