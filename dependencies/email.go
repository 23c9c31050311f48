package dependencies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/config"
)

const sendGridMailEndpoint = "/v3/mail/send"

// EmailMessage 是一封纯文本/HTML 邮件，HTML 为空时只发送纯文本。
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// EmailSender 定义邮件发送能力，由通知 worker 调用。
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

type sendGridSender struct {
	cfg    *config.EmailConfig
	logger *zap.Logger
}

// NewSendGridSender 创建基于 SendGrid v3 API 的邮件发送器。
// - 每次发送都构造独立的请求对象，可以被多个 worker 并发使用。
func NewSendGridSender(cfg *config.EmailConfig, logger *zap.Logger) (EmailSender, error) {
	if cfg.APIKey == "" || cfg.FromEmail == "" {
		return nil, errors.New("邮件配置无效，缺少 api_key 或 from_email")
	}
	return &sendGridSender{cfg: cfg, logger: logger}, nil
}

type sendGridError struct {
	Message string `json:"message"`
	Field   string `json:"field"`
}

type sendGridErrorResponse struct {
	Errors []sendGridError `json:"errors"`
}

func (s *sendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	from := mail.NewEmail(s.cfg.FromName, s.cfg.FromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	m := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	req := sendgrid.GetRequest(s.cfg.APIKey, sendGridMailEndpoint, s.cfg.Host)
	req.Method = "POST"
	req.Body = mail.GetRequestBody(m)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("调用 SendGrid 失败: %w", err)
	}
	if res.StatusCode >= 300 {
		var body sendGridErrorResponse
		_ = json.Unmarshal([]byte(res.Body), &body)
		reason := res.Body
		if len(body.Errors) > 0 {
			reason = body.Errors[0].Message
		}
		return fmt.Errorf("SendGrid 返回错误状态 %d: %s", res.StatusCode, reason)
	}

	s.logger.Debug("邮件已提交到 SendGrid", zap.String("to", msg.To), zap.Int("status", res.StatusCode))
	return nil
}
