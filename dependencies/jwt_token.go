package dependencies

import (
	"errors"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Xushengqwer/starter_hub/config"
	"github.com/Xushengqwer/starter_hub/constants"
)

// JWTTokenInterface 定义 JWT 工具的接口
// - 访问令牌携带租户、角色和状态，供中间件做鉴权；刷新令牌只携带租户、用户和平台。
type JWTTokenInterface interface {
	// GenerateAccessToken 生成访问令牌
	GenerateAccessToken(tenantID, userID string, role enums.UserRole, status enums.UserStatus, platform enums.Platform) (string, error)

	// GenerateRefreshToken 生成刷新令牌
	GenerateRefreshToken(tenantID, userID string, platform enums.Platform) (string, error)

	// ParseAccessToken 解析并验证访问令牌
	ParseAccessToken(tokenString string) (*CustomClaims, error)

	// ParseRefreshToken 解析并验证刷新令牌
	ParseRefreshToken(tokenString string) (*CustomClaims, error)
}

// CustomClaims 定义 JWT 的声明结构体，包含标准字段和自定义字段
type CustomClaims struct {
	TenantID             string           `json:"tenant_id"` // 所属租户，所有业务请求都以它为边界
	UserID               string           `json:"user_id"`
	Role                 enums.UserRole   `json:"role"`
	Status               enums.UserStatus `json:"status"`
	Platform             enums.Platform   `json:"platform"`
	jwt.RegisteredClaims                  // JTI 用于注销时加入黑名单
}

// RemainingTTL 返回令牌距离过期的剩余时间，已过期或没有过期时间时返回 0。
func (c *CustomClaims) RemainingTTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// JWTUtility 实现 JWTTokenInterface 接口的结构体
type JWTUtility struct {
	cfg *config.JWTConfig
	now func() time.Time
}

// NewJWTUtility 创建 JWTUtility 实例
func NewJWTUtility(cfg *config.JWTConfig) JWTTokenInterface {
	return &JWTUtility{cfg: cfg, now: time.Now}
}

func (ju *JWTUtility) GenerateAccessToken(tenantID, userID string, role enums.UserRole, status enums.UserStatus, platform enums.Platform) (string, error) {
	claims := ju.newClaims(tenantID, userID, platform, constants.AccessTokenTTL)
	claims.Role = role
	claims.Status = status
	return ju.sign(claims, ju.cfg.SecretKey)
}

func (ju *JWTUtility) GenerateRefreshToken(tenantID, userID string, platform enums.Platform) (string, error) {
	claims := ju.newClaims(tenantID, userID, platform, constants.RefreshTokenTTL)
	return ju.sign(claims, ju.cfg.RefreshSecret)
}

func (ju *JWTUtility) newClaims(tenantID, userID string, platform enums.Platform, ttl time.Duration) *CustomClaims {
	now := ju.now()
	return &CustomClaims{
		TenantID: tenantID,
		UserID:   userID,
		Platform: platform,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ju.cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
	}
}

func (ju *JWTUtility) sign(claims *CustomClaims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("签名令牌失败: %w", err)
	}
	return signedToken, nil
}

func (ju *JWTUtility) ParseAccessToken(tokenString string) (*CustomClaims, error) {
	return ju.parseToken(tokenString, []byte(ju.cfg.SecretKey))
}

func (ju *JWTUtility) ParseRefreshToken(tokenString string) (*CustomClaims, error) {
	return ju.parseToken(tokenString, []byte(ju.cfg.RefreshSecret))
}

// parseToken 校验签名算法、过期时间和签发者，并要求携带租户 ID。
func (ju *JWTUtility) parseToken(tokenString string, secret []byte) (*CustomClaims, error) {
	parser := jwt.NewParser(
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(ju.cfg.Issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ju.now),
	)
	token, err := parser.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("签名算法不匹配: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("无效的JWT声明")
	}
	if claims.TenantID == "" || claims.UserID == "" {
		return nil, errors.New("令牌缺少租户或用户信息")
	}
	return claims, nil
}
