package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Xushengqwer/starter_hub/constants"
)

// TokenBlackRepo 是基于 JTI (JWT ID) 的令牌黑名单。
// - 登出时把访问令牌和刷新令牌的 JTI 写入，存活时间等于令牌剩余有效期。
type TokenBlackRepo interface {
	// AddJtiToBlacklist 将 JTI 加入黑名单。
	// - ttl <= 0 说明令牌已经过期，无需拉黑，直接返回 nil。
	AddJtiToBlacklist(ctx context.Context, jti string, ttl time.Duration) error

	// IsJtiBlacklisted 检查 JTI 是否在黑名单中，不在时返回 false, nil。
	IsJtiBlacklisted(ctx context.Context, jti string) (bool, error)
}

type tokenBlackRepo struct {
	client *redis.Client
}

// NewTokenBlacklistRepo 创建 TokenBlackRepo。
func NewTokenBlacklistRepo(client *redis.Client) TokenBlackRepo {
	return &tokenBlackRepo{client: client}
}

// 示例键: "blacklist:jti:xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx"
func (r *tokenBlackRepo) buildBlacklistKey(jti string) string {
	return constants.BlacklistKeyPrefix + ":jti:" + jti
}

func (r *tokenBlackRepo) AddJtiToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.buildBlacklistKey(jti), "blacklisted", ttl).Err(); err != nil {
		return fmt.Errorf("tokenBlackRepo.AddJtiToBlacklist: 将 JTI 加入黑名单失败 (JTI: %s): %w", jti, err)
	}
	return nil
}

func (r *tokenBlackRepo) IsJtiBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := r.client.Exists(ctx, r.buildBlacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("tokenBlackRepo.IsJtiBlacklisted: 检查 JTI 黑名单失败 (JTI: %s): %w", jti, err)
	}
	return exists == 1, nil
}
