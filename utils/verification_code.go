package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateCaptcha 生成 6 位数字验证码，验证码用于登录，必须使用密码学安全的随机源。
func GenerateCaptcha() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("生成验证码失败: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
