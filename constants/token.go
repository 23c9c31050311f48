package constants

import "time"

// 令牌有效期。访问令牌携带用户状态，拉黑后最长 AccessTokenTTL 内仍可使用。
const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 10 * 24 * time.Hour
)

// 手机验证码
const (
	PhoneCodeTTL      = 5 * time.Minute
	PhoneCodeCooldown = 60 * time.Second // 同一手机号两次发送的最小间隔
)
