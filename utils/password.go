package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt 只使用前 72 字节，超长密码在注册校验阶段就应被拒绝
const maxPasswordBytes = 72

var ErrPasswordTooLong = errors.New("密码超过 72 字节")

// SetPassword 返回密码的 bcrypt 哈希
func SetPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword 比对明文和哈希，不匹配时返回 bcrypt.ErrMismatchedHashAndPassword
func CheckPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
