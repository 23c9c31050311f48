package controller

import (
	"errors"
	"io"

	commonenums "github.com/Xushengqwer/go-common/models/enums"
	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/starter_hub/apperrors"
	"github.com/Xushengqwer/starter_hub/dependencies"
	"github.com/Xushengqwer/starter_hub/middleware"
	"github.com/Xushengqwer/starter_hub/querybuilder"
	"github.com/Xushengqwer/starter_hub/service/post"
)

// HeaderPlatform 客户端平台类型请求头，取值 web / app，缺省按 web 处理。
const HeaderPlatform = "X-Platform"

// Guards 由路由层构造的中间件集合，控制器在 RegisterRoutes 中按需组合。
type Guards struct {
	Auth          gin.HandlerFunc // 必须登录
	OptionalAuth  gin.HandlerFunc // 可选登录
	Tenant        gin.HandlerFunc // 解析租户
	Admin         gin.HandlerFunc // 租户管理员
	PlatformAdmin gin.HandlerFunc // 平台管理员
	RateLimit     gin.HandlerFunc // 认证类接口限流
}

// bindJSON 绑定并校验请求体，失败时转换成 400 校验错误。
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperrors.FromBinding(err)
	}
	return nil
}

// bindOptionalJSON 与 bindJSON 相同，但允许空请求体。
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.FromBinding(err)
	}
	return nil
}

func claimsOf(c *gin.Context) (*dependencies.CustomClaims, error) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return nil, apperrors.ErrTokenMissing
	}
	return claims, nil
}

func actorOf(c *gin.Context) (post.Actor, error) {
	claims, err := claimsOf(c)
	if err != nil {
		return post.Actor{}, err
	}
	return post.Actor{UserID: claims.UserID, Role: claims.Role}, nil
}

// optionalActor 公开接口使用，未登录时返回 nil。
func optionalActor(c *gin.Context) *post.Actor {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return nil
	}
	return &post.Actor{UserID: claims.UserID, Role: claims.Role}
}

func platformOf(c *gin.Context) (commonenums.Platform, error) {
	raw := c.GetHeader(HeaderPlatform)
	if raw == "" {
		return commonenums.PlatformWeb, nil
	}
	platform, err := commonenums.PlatformFromString(raw)
	if err != nil {
		return platform, apperrors.ErrInvalidPlatform.Wrap(err)
	}
	return platform, nil
}

func queryOf(c *gin.Context) (querybuilder.QueryOptions, error) {
	return querybuilder.ParseQuery(c.Request.URL.Query())
}
