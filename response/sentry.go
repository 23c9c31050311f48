package response

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// SentryReporter 通过 sentry-go 上报错误，请求上下文作为面包屑附加在事件上。
type SentryReporter struct {
	hub *sentry.Hub
}

// NewSentryReporter 使用给定的 Hub 上报；hub 为 nil 时使用全局 Hub。
func NewSentryReporter(hub *sentry.Hub) *SentryReporter {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	return &SentryReporter{hub: hub}
}

func (r *SentryReporter) Report(ctx context.Context, err error, req RequestInfo) {
	hub := r.hub
	if h := sentry.GetHubFromContext(ctx); h != nil {
		hub = h
	}
	hub = hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("http.method", req.Method)
		scope.AddBreadcrumb(&sentry.Breadcrumb{
			Type:     "http",
			Category: "request",
			Message:  req.Method + " " + req.URL,
			Level:    sentry.LevelInfo,
			Data: map[string]any{
				"method":  req.Method,
				"url":     req.URL,
				"body":    req.Body,
				"query":   req.Query,
				"params":  req.Params,
				"headers": req.Headers,
			},
		}, 10)
		hub.CaptureException(err)
	})
}
