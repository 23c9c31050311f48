package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/redis/go-redis/v9"

	"github.com/Xushengqwer/starter_hub/constants"
)

// CodeRepo 管理手机验证码。
// - 验证码按租户隔离：同一手机号在不同租户下互不影响。
type CodeRepo interface {
	// SetCaptcha 写入验证码并设置有效期，覆盖旧值。
	SetCaptcha(ctx context.Context, tenantID, phone, captcha string, expire time.Duration) error

	// GetCaptcha 读取验证码；不存在或已过期时返回 commonerrors.ErrRepoNotFound。
	GetCaptcha(ctx context.Context, tenantID, phone string) (string, error)

	// DeleteCaptcha 删除验证码，验证成功后调用以防止重放。
	DeleteCaptcha(ctx context.Context, tenantID, phone string) error

	// AcquireSendSlot 占用发送冷却窗口。
	// - 返回 false 表示冷却期内已经发送过，调用方应拒绝本次发送。
	AcquireSendSlot(ctx context.Context, tenantID, phone string, cooldown time.Duration) (bool, error)
}

type codeRepo struct {
	client *redis.Client
}

// NewCodeRepo 创建 CodeRepo。
func NewCodeRepo(client *redis.Client) CodeRepo {
	return &codeRepo{client: client}
}

// 示例键: "captcha:<tenantID>:13800000000"
func (r *codeRepo) buildKey(tenantID, phone string) string {
	return constants.PhoneCodeKeyPrefix + ":" + tenantID + ":" + phone
}

func (r *codeRepo) buildCooldownKey(tenantID, phone string) string {
	return constants.PhoneCodeKeyPrefix + ":cooldown:" + tenantID + ":" + phone
}

func (r *codeRepo) SetCaptcha(ctx context.Context, tenantID, phone, captcha string, expire time.Duration) error {
	if err := r.client.Set(ctx, r.buildKey(tenantID, phone), captcha, expire).Err(); err != nil {
		return fmt.Errorf("codeRepo.SetCaptcha: 设置验证码失败 (手机号: %s): %w", phone, err)
	}
	return nil
}

func (r *codeRepo) GetCaptcha(ctx context.Context, tenantID, phone string) (string, error) {
	val, err := r.client.Get(ctx, r.buildKey(tenantID, phone)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", commonerrors.ErrRepoNotFound
		}
		return "", fmt.Errorf("codeRepo.GetCaptcha: 获取验证码失败 (手机号: %s): %w", phone, err)
	}
	return val, nil
}

func (r *codeRepo) DeleteCaptcha(ctx context.Context, tenantID, phone string) error {
	// key 不存在时 DEL 返回 0，Err() 为 nil
	if err := r.client.Del(ctx, r.buildKey(tenantID, phone)).Err(); err != nil {
		return fmt.Errorf("codeRepo.DeleteCaptcha: 删除验证码失败 (手机号: %s): %w", phone, err)
	}
	return nil
}

func (r *codeRepo) AcquireSendSlot(ctx context.Context, tenantID, phone string, cooldown time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.buildCooldownKey(tenantID, phone), 1, cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("codeRepo.AcquireSendSlot: 占用发送窗口失败 (手机号: %s): %w", phone, err)
	}
	return ok, nil
}
