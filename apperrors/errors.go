package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Error 是携带 HTTP 状态码和 i18n 消息键的业务错误。
// 服务层返回它，由响应规范化器统一翻译并输出为错误信封。
type Error struct {
	Status  int            // HTTP 状态码
	Key     string         // i18n 消息键，例如 "users.userNotFound"
	Args    map[string]any // 消息插值参数
	Details []string       // 字段级校验消息，可以是 "key|{json参数}" 组合形式
	Err     error          // 可选的底层错误，不会返回给客户端
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%d): %v", e.Key, e.Status, e.Err)
	}
	return fmt.Sprintf("%s (%d)", e.Key, e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// IsValidation 报告该错误是否为携带字段级消息的校验类错误。
func (e *Error) IsValidation() bool {
	return e.Status == http.StatusBadRequest && len(e.Details) > 0
}

// WithArgs 返回附带插值参数的副本。
func (e *Error) WithArgs(args map[string]any) *Error {
	cp := *e
	cp.Args = args
	return &cp
}

// Wrap 返回附带底层错误的副本。
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

func newError(status int, key string) *Error {
	return &Error{Status: status, Key: key}
}

func NotFound(key string) *Error     { return newError(http.StatusNotFound, key) }
func Conflict(key string) *Error     { return newError(http.StatusConflict, key) }
func Unauthorized(key string) *Error { return newError(http.StatusUnauthorized, key) }
func Forbidden(key string) *Error    { return newError(http.StatusForbidden, key) }
func BadRequest(key string) *Error   { return newError(http.StatusBadRequest, key) }
func TooManyRequests(key string) *Error {
	return newError(http.StatusTooManyRequests, key)
}

// ServiceUnavailable 用于第三方依赖（短信、邮件、对象存储）不可用的情况。
func ServiceUnavailable(key string) *Error {
	return newError(http.StatusServiceUnavailable, key)
}

// GatewayTimeout 用于请求在截止时间内没有处理完成的情况。
func GatewayTimeout(key string) *Error {
	return newError(http.StatusGatewayTimeout, key)
}

// Validation 构造 400 校验错误，details 为逐字段的消息。
func Validation(details ...string) *Error {
	return &Error{Status: http.StatusBadRequest, Key: "http.error.400", Details: details}
}

// Composite 把消息键和插值参数拼成 "key|{json}" 形式，规范化器会拆开后翻译。
func Composite(key string, params map[string]any) string {
	if len(params) == 0 {
		return key
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return key
	}
	return key + "|" + string(raw)
}

// FromBinding 把 gin 绑定阶段的错误转换成校验错误。
// validator 的字段错误逐条转换为 "validation.<tag>|{field,param}"，
// 其它绑定错误（JSON 语法错误、类型不匹配）作为单条原始消息返回。
func FromBinding(err error) *Error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		details := make([]string, 0, len(ve))
		for _, fe := range ve {
			params := map[string]any{"field": fe.Field()}
			if fe.Param() != "" {
				params["param"] = fe.Param()
			}
			details = append(details, Composite("validation."+fe.Tag(), params))
		}
		return Validation(details...).Wrap(err)
	}
	return Validation(Composite("validation.invalidBody", map[string]any{"reason": err.Error()})).Wrap(err)
}

// As 是 errors.As 的便捷封装。
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
