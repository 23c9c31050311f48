package response

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Reporter 把服务端错误转发到外部错误追踪系统。
type Reporter interface {
	Report(ctx context.Context, err error, req RequestInfo)
}

// NopReporter 未配置错误追踪时使用。
type NopReporter struct{}

func (NopReporter) Report(context.Context, error, RequestInfo) {}

// RequestInfo 是随错误一起上报的请求上下文，敏感请求头已去除。
type RequestInfo struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Body    string            `json:"body,omitempty"`
	Query   map[string]string `json:"query,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// 不随错误上报的请求头（小写）
var redactedHeaders = map[string]struct{}{
	"authorization": {},
	"cookie":        {},
}

const (
	bodyKey       = "response.capturedBody"
	maxCaptureLen = 4 << 10
)

// NewRequestInfo 从 gin.Context 收集请求上下文。
func NewRequestInfo(c *gin.Context) RequestInfo {
	info := RequestInfo{
		Method: c.Request.Method,
		URL:    c.Request.URL.String(),
	}
	if buf, ok := c.Get(bodyKey); ok {
		info.Body = buf.(*bytes.Buffer).String()
	}
	if q := c.Request.URL.Query(); len(q) > 0 {
		info.Query = make(map[string]string, len(q))
		for k, v := range q {
			info.Query[k] = strings.Join(v, ",")
		}
	}
	if len(c.Params) > 0 {
		info.Params = make(map[string]string, len(c.Params))
		for _, p := range c.Params {
			info.Params[p.Key] = p.Value
		}
	}
	info.Headers = redactHeaders(c.Request.Header)
	return info
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if _, skip := redactedHeaders[strings.ToLower(k)]; skip {
			continue
		}
		out[k] = strings.Join(v, ",")
	}
	return out
}

// captureBody 在请求体被业务代码读取的同时保留前 4KB，供错误上报使用。
func captureBody(c *gin.Context) {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return
	}
	buf := &bytes.Buffer{}
	c.Set(bodyKey, buf)
	c.Request.Body = &teeBody{ReadCloser: c.Request.Body, buf: buf}
}

type teeBody struct {
	io.ReadCloser
	buf *bytes.Buffer
}

func (t *teeBody) Read(p []byte) (int, error) {
	n, err := t.ReadCloser.Read(p)
	if n > 0 && t.buf.Len() < maxCaptureLen {
		remain := maxCaptureLen - t.buf.Len()
		if remain > n {
			remain = n
		}
		t.buf.Write(p[:remain])
	}
	return n, err
}
