// Package middleware 提供业务路由使用的 gin 中间件：
// JWT 鉴权、角色校验、租户解析和限流。
// 所有失败都交给 Failer（响应规范化器）输出统一的错误信封，然后 Abort。
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/starter_hub/constants"
	"github.com/Xushengqwer/starter_hub/dependencies"
)

// Failer 立即输出错误响应。*response.Normalizer 实现了它。
type Failer interface {
	Fail(c *gin.Context, err error)
}

// ClaimsFrom 读取鉴权中间件写入的访问令牌声明；未登录时返回 nil, false。
func ClaimsFrom(c *gin.Context) (*dependencies.CustomClaims, bool) {
	v, ok := c.Get(constants.ContextKeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*dependencies.CustomClaims)
	return claims, ok && claims != nil
}

// TenantFrom 读取租户中间件解析出的租户 ID。
func TenantFrom(c *gin.Context) string {
	return c.GetString(constants.ContextKeyTenantID)
}

func abort(c *gin.Context, f Failer, err error) {
	f.Fail(c, err)
	c.Abort()
}
