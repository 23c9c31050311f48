package middleware

import (
	"fmt"
	"strings"

	commonenums "github.com/Xushengqwer/go-common/models/enums"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/apperrors"
	"github.com/Xushengqwer/starter_hub/constants"
	"github.com/Xushengqwer/starter_hub/dependencies"
	"github.com/Xushengqwer/starter_hub/repository/redis"
)

// Authenticator 校验 Bearer 访问令牌并把声明写入 gin.Context。
type Authenticator struct {
	jwtUtil   dependencies.JWTTokenInterface
	blacklist redis.TokenBlackRepo
	failer    Failer
	logger    *zap.Logger
}

// NewAuthenticator 创建鉴权中间件工厂。
func NewAuthenticator(jwtUtil dependencies.JWTTokenInterface, blacklist redis.TokenBlackRepo, failer Failer, logger *zap.Logger) *Authenticator {
	return &Authenticator{jwtUtil: jwtUtil, blacklist: blacklist, failer: failer, logger: logger}
}

// Required 要求请求携带有效的访问令牌。
// 缺失 -> 401 auth.tokenMissing；无效或过期 -> 401 auth.tokenInvalid；
// 已注销 -> 401 auth.tokenRevoked；令牌中的用户已被拉黑 -> 403 auth.userBlacklisted。
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			abort(c, a.failer, apperrors.ErrTokenMissing)
			return
		}
		if err := a.authenticate(c, raw); err != nil {
			abort(c, a.failer, err)
			return
		}
		c.Next()
	}
}

// Optional 有令牌时按 Required 校验，没有令牌时直接放行（公开接口的可选登录）。
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.Next()
			return
		}
		if err := a.authenticate(c, raw); err != nil {
			abort(c, a.failer, err)
			return
		}
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context, raw string) error {
	const operation = "Authenticator.authenticate"

	claims, err := a.jwtUtil.ParseAccessToken(raw)
	if err != nil {
		a.logger.Debug("访问令牌解析失败", zap.String("operation", operation), zap.Error(err))
		return apperrors.ErrTokenInvalid.Wrap(err)
	}

	revoked, err := a.blacklist.IsJtiBlacklisted(c.Request.Context(), claims.ID)
	if err != nil {
		a.logger.Error("检查令牌黑名单失败",
			zap.String("operation", operation),
			zap.String("jti", claims.ID),
			zap.Error(err),
		)
		return fmt.Errorf("%s: %w", operation, err)
	}
	if revoked {
		a.logger.Info("已注销的访问令牌被再次使用",
			zap.String("operation", operation),
			zap.String("userID", claims.UserID),
		)
		return apperrors.ErrTokenRevoked
	}
	if claims.Status == commonenums.StatusBlacklisted {
		return apperrors.ErrUserBlacklisted
	}

	c.Set(constants.ContextKeyClaims, claims)
	return nil
}

// bearerToken 从 Authorization: Bearer <token> 中取出令牌。
func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// RequireRole 要求当前用户具有给定角色之一，必须注册在 Required 之后。
func RequireRole(failer Failer, roles ...commonenums.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			abort(c, failer, apperrors.ErrTokenMissing)
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		abort(c, failer, apperrors.ErrPermissionDenied)
	}
}

// RequirePlatformAdmin 要求当前用户是平台租户下的管理员。
// platformTenantID 为空时任何人都无法通过。
func RequirePlatformAdmin(failer Failer, platformTenantID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			abort(c, failer, apperrors.ErrTokenMissing)
			return
		}
		if platformTenantID == "" || claims.TenantID != platformTenantID || claims.Role != commonenums.RoleAdmin {
			abort(c, failer, apperrors.ErrPermissionDenied)
			return
		}
		c.Next()
	}
}
