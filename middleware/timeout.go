package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/apperrors"
)

// RequestTimeout 给请求上下文加上截止时间，后续处理链仍在当前 goroutine 中执行，
// 因此 panic 依旧由外层的 ErrorHandler 捕获，响应也只会有一个写入方。
// 截止时间到达且处理链没有写出响应时，输出 504 错误信封。
func RequestTimeout(timeout time.Duration, failer Failer, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if c.Writer.Written() || !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}
		logger.Warn("请求处理超时",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Duration("timeout", timeout),
		)
		failer.Fail(c, apperrors.ErrRequestTimeout)
	}
}
