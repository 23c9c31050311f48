// Package response 统一 HTTP 响应格式：
// 成功结果由 Normalizer.Handle 包装为 SuccessEnvelope，
// 所有错误由 Normalizer.ErrorHandler 中间件翻译为 ErrorEnvelope。
// 控制器只返回 (data, error)，不直接写 JSON。
package response

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// SuccessEnvelope 成功响应
type SuccessEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	Data       any    `json:"data"`
}

// ErrorEnvelope 失败响应。Error 只在校验错误（[]string）或调试模式（对象）下出现。
type ErrorEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	Error      any    `json:"error,omitempty"`
}

// Route 是单个路由的响应元数据，与路由注册写在一起。
type Route struct {
	// Status 成功时的 HTTP 状态码，默认 200
	Status int
	// MessageKey 成功消息的 i18n 键，为空时使用 http.success.<status>
	MessageKey string
	// Shape 返回投影目标的指针（例如 &vo.UserVO{}），结果只保留目标类型声明的字段
	Shape func() any
	// Bypass 为 true 时原样输出处理结果，不做任何包装
	Bypass bool
}

// HandlerFunc 是被 Normalizer 包装的业务处理函数。
type HandlerFunc func(c *gin.Context) (any, error)

func (r Route) status() int {
	if r.Status == 0 {
		return http.StatusOK
	}
	return r.Status
}

func successKey(status int) string { return "http.success." + strconv.Itoa(status) }
func errorKey(status int) string   { return "http.error." + strconv.Itoa(status) }
