package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/constants"
	"github.com/Xushengqwer/starter_hub/models/entities"
)

// TenantLookup 解析启用中的租户，service/tenant.TenantService 实现了它。
type TenantLookup interface {
	ResolveActive(ctx context.Context, tenantID string) (*entities.Tenant, error)
}

// ResolveTenant 确定本次请求所属的租户并写入 gin.Context：
//   - 已登录：以访问令牌中的租户为准，忽略 X-Tenant-ID，防止跨租户访问；
//   - 未登录：读取 X-Tenant-ID 请求头。
//
// 两种情况都会确认租户存在且启用，否则返回 404 tenants.tenantNotFound；
// 未提供租户时返回 400 tenants.tenantRequired。
func ResolveTenant(tenants TenantLookup, failer Failer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := strings.TrimSpace(c.GetHeader(constants.HeaderTenantID))
		if claims, ok := ClaimsFrom(c); ok {
			if tenantID != "" && tenantID != claims.TenantID {
				logger.Debug("请求头中的租户与令牌不一致，以令牌为准",
					zap.String("header", tenantID),
					zap.String("claim", claims.TenantID),
				)
			}
			tenantID = claims.TenantID
		}

		tenant, err := tenants.ResolveActive(c.Request.Context(), tenantID)
		if err != nil {
			abort(c, failer, err)
			return
		}
		c.Set(constants.ContextKeyTenantID, tenant.ID)
		c.Next()
	}
}
