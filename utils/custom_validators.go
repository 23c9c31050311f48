package utils

import (
	"fmt"
	"regexp"
	"unicode"

	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	myenums "github.com/Xushengqwer/starter_hub/models/enums"
)

var (
	// 中国大陆手机号：1 开头，第二位 3-9，共 11 位
	phoneNumberRegex = regexp.MustCompile(`^1[3-9]\d{9}$`)

	// 账号：字母、数字、下划线，1-20 位
	accountRegex = regexp.MustCompile(`^[A-Za-z0-9_]{1,20}$`)

	// 租户标识：小写字母、数字和单个连字符，2-64 位，不能以连字符开头或结尾
	slugRegex = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9]|-[a-z0-9]){1,63}$`)
)

// ValidateChinesePhone 校验是否为中国大陆手机号。
func ValidateChinesePhone(fl validator.FieldLevel) bool {
	return phoneNumberRegex.MatchString(fl.Field().String())
}

// ValidateAccount 校验登录账号格式。
func ValidateAccount(fl validator.FieldLevel) bool {
	return accountRegex.MatchString(fl.Field().String())
}

// ValidateSlug 校验租户标识，它会出现在 URL 和对象存储路径中。
func ValidateSlug(fl validator.FieldLevel) bool {
	return slugRegex.MatchString(fl.Field().String())
}

// ValidatePassword 要求 6-30 位，且同时包含字母和数字。
func ValidatePassword(fl validator.FieldLevel) bool {
	pwd := fl.Field().String()
	if len(pwd) < 6 || len(pwd) > 30 {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range pwd {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// enumValidator 生成同时支持值和指针字段的枚举校验器，nil 指针视为未提供。
func enumValidator[T comparable](valid ...T) validator.Func {
	return func(fl validator.FieldLevel) bool {
		var v T
		switch x := fl.Field().Interface().(type) {
		case T:
			v = x
		case *T:
			if x == nil {
				return true
			}
			v = *x
		default:
			return false
		}
		for _, candidate := range valid {
			if v == candidate {
				return true
			}
		}
		return false
	}
}

var (
	ValidGender     = enumValidator(myenums.Unknown, myenums.Male, myenums.Female)
	ValidStatus     = enumValidator(enums.StatusActive, enums.StatusBlacklisted)
	ValidRole       = enumValidator(enums.RoleAdmin, enums.RoleUser, enums.RoleGuest)
	ValidPostStatus = enumValidator(myenums.PostDraft, myenums.PostPublished, myenums.PostArchived)
)

// customValidations 自定义校验标签，DTO 中通过 binding:"Account" 等方式使用。
// 标签名同时是 validation.<tag> 翻译键的后缀。
var customValidations = map[string]validator.Func{
	"ChinesePhone": ValidateChinesePhone,
	"Account":      ValidateAccount,
	"Password":     ValidatePassword,
	"Slug":         ValidateSlug,
	"Status":       ValidStatus,
	"Role":         ValidRole,
	"Gender":       ValidGender,
	"PostStatus":   ValidPostStatus,
}

// RegisterCustomValidators 将自定义校验函数注册到 Gin 的 validator 引擎。
func RegisterCustomValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return registerValidations(v)
}

func registerValidations(v *validator.Validate) error {
	for tag, fn := range customValidations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("注册验证器 '%s' 失败: %w", tag, err)
		}
	}
	return nil
}
