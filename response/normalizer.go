package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/apperrors"
	"github.com/Xushengqwer/starter_hub/i18n"
)

// Normalizer 负责把处理结果和错误转换成统一的响应信封。
// 创建后只读，可被所有请求并发使用。
type Normalizer struct {
	translator i18n.Translator
	logger     *zap.Logger
	reporter   Reporter
	metrics    *Metrics
	debug      bool
	now        func() time.Time
}

// Option 配置 Normalizer 的可选项。
type Option func(*Normalizer)

// WithDebug 调试模式下，非业务错误会在响应中附带错误信息和调用栈。
func WithDebug(debug bool) Option { return func(n *Normalizer) { n.debug = debug } }

// WithReporter 设置 5xx 错误的外部上报器。
func WithReporter(r Reporter) Option { return func(n *Normalizer) { n.reporter = r } }

// WithMetrics 设置响应计数指标。
func WithMetrics(m *Metrics) Option { return func(n *Normalizer) { n.metrics = m } }

// WithClock 替换时间来源，测试用。
func WithClock(now func() time.Time) Option { return func(n *Normalizer) { n.now = now } }

// NewNormalizer 创建响应规范化器。
func NewNormalizer(translator i18n.Translator, logger *zap.Logger, opts ...Option) *Normalizer {
	n := &Normalizer{
		translator: translator,
		logger:     logger,
		reporter:   NopReporter{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Handle 把业务处理函数包装成 gin.HandlerFunc：
// 出错时把错误交给 ErrorHandler 统一处理；成功时按路由元数据投影并包装。
func (n *Normalizer) Handle(route Route, h HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := h(c)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		n.Success(c, route, data)
	}
}

// Success 输出成功响应。
func (n *Normalizer) Success(c *gin.Context, route Route, data any) {
	status := route.status()

	if route.Bypass {
		n.observe(status)
		if data == nil {
			c.Status(status)
			return
		}
		c.JSON(status, data)
		return
	}

	if route.Shape != nil && data != nil {
		shaped, err := project(route.Shape(), data)
		if err != nil {
			n.Fail(c, fmt.Errorf("response.Success: 响应投影失败: %w", err))
			return
		}
		data = shaped
	}

	key := route.MessageKey
	if key == "" {
		key = successKey(status)
	}
	lang := i18n.LangFrom(c)

	n.observe(status)
	c.JSON(status, SuccessEnvelope{
		StatusCode: status,
		Message:    n.translator.Translate(key, i18n.Options{Lang: lang}),
		Timestamp:  n.timestamp(),
		Data:       data,
	})
}

// project 把 src 复制到 dst 指向的目标类型，只保留目标类型中声明的字段。
func project(dst, src any) (any, error) {
	if err := copier.CopyWithOption(dst, src, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	return dst, nil
}

// ErrorHandler 是全局异常过滤中间件，必须注册在业务路由之前。
// 它捕获 panic 和 c.Errors 中的错误，翻译后输出 ErrorEnvelope。
func (n *Normalizer) ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		captureBody(c)

		defer func() {
			if rec := recover(); rec != nil {
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				n.fail(c, &panicError{err: err, stack: debug.Stack()})
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		n.Fail(c, c.Errors.Last().Err)
	}
}

// Fail 立即输出错误响应，供中间件（鉴权、限流）在 Abort 前直接使用。
func (n *Normalizer) Fail(c *gin.Context, err error) {
	n.fail(c, err)
}

func (n *Normalizer) fail(c *gin.Context, err error) {
	lang := i18n.LangFrom(c)
	status := http.StatusInternalServerError
	var message string
	var detail any

	appErr, isAppErr := apperrors.As(err)
	if !isAppErr && errors.Is(err, context.DeadlineExceeded) {
		// 超过请求截止时间的下游调用统一按 504 输出
		appErr, isAppErr = apperrors.ErrRequestTimeout.Wrap(err), true
	}
	switch {
	case isAppErr && appErr.IsValidation():
		status = appErr.Status
		message = n.translator.Translate(errorKey(status), i18n.Options{Lang: lang})
		details := make([]string, 0, len(appErr.Details))
		for _, d := range appErr.Details {
			details = append(details, n.translateComposite(d, lang))
		}
		detail = details
	case isAppErr:
		status = appErr.Status
		message = n.translator.Translate(appErr.Key, i18n.Options{
			Lang:         lang,
			Args:         appErr.Args,
			DefaultValue: n.translator.Translate(errorKey(status), i18n.Options{Lang: lang}),
		})
	default:
		message = n.translator.Translate(errorKey(status), i18n.Options{Lang: lang})
		if n.debug {
			detail = gin.H{"message": err.Error(), "stack": stackOf(err)}
		}
	}

	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		n.logger.Error("请求处理失败", fields...)
		n.reporter.Report(c.Request.Context(), err, NewRequestInfo(c))
	} else if status >= http.StatusBadRequest {
		n.logger.Warn("请求被拒绝", fields...)
	}

	n.observe(status)
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		StatusCode: status,
		Message:    message,
		Timestamp:  n.timestamp(),
		Error:      detail,
	})
}

// translateComposite 翻译 "key|{json参数}" 形式的消息；参数解析失败时回退到原始消息。
func (n *Normalizer) translateComposite(raw, lang string) string {
	key, params, found := strings.Cut(raw, "|")
	if !found {
		return n.translator.Translate(raw, i18n.Options{Lang: lang})
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(params), &args); err != nil {
		return raw
	}
	return n.translator.Translate(key, i18n.Options{Lang: lang, Args: args, DefaultValue: raw})
}

func (n *Normalizer) timestamp() string {
	return n.now().UTC().Format(time.RFC3339Nano)
}

func (n *Normalizer) observe(status int) {
	if n.metrics != nil {
		n.metrics.observe(status)
	}
}

// panicError 保留 panic 发生时的调用栈。
type panicError struct {
	err   error
	stack []byte
}

func (p *panicError) Error() string { return "panic: " + p.err.Error() }
func (p *panicError) Unwrap() error { return p.err }

func stackOf(err error) []string {
	var raw string
	if p, ok := err.(*panicError); ok {
		raw = string(p.stack)
	} else {
		raw = string(debug.Stack())
	}
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines
}
