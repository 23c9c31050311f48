package dependencies

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Xushengqwer/starter_hub/config"
)

// SMSClient 定义短信客户端接口
// - 只负责投递，不负责生成或存储验证码。
type SMSClient interface {
	// SendCode 发送验证码模板短信
	SendCode(ctx context.Context, phone string, code string) error

	// SendText 发送通知类短信，content 填入模板的 content 变量
	SendText(ctx context.Context, phone string, content string) error
}

type smsClient struct {
	config     *config.SMSConfig
	httpClient *http.Client
}

// NewSMSClient 创建微信云托管短信客户端，配置缺少必要字段时返回错误。
func NewSMSClient(cfg *config.SMSConfig) (SMSClient, error) {
	if cfg == nil || cfg.AppID == "" || cfg.Secret == "" || cfg.Endpoint == "" || cfg.TemplateID == "" {
		return nil, errors.New("SMS 配置无效，缺少必要字段")
	}
	return &smsClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (s *smsClient) SendCode(ctx context.Context, phone string, code string) error {
	return s.send(ctx, phone, map[string]string{"code": code})
}

func (s *smsClient) SendText(ctx context.Context, phone string, content string) error {
	return s.send(ctx, phone, map[string]string{"content": content})
}

func (s *smsClient) send(ctx context.Context, phone string, data map[string]string) error {
	reqBody := map[string]interface{}{
		"appid":       s.config.AppID,
		"secret":      s.config.Secret,
		"env":         s.config.Env,
		"template_id": s.config.TemplateID,
		"phone":       phone,
		"data":        data,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("构造短信请求参数失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("创建短信请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("发送短信失败: %w", err)
	}
	defer resp.Body.Close()

	// errcode = 0 表示成功
	var result struct {
		ErrCode int    `json:"errcode"`
		ErrMsg  string `json:"errmsg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("解析短信响应失败 (HTTP %d): %w", resp.StatusCode, err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("短信发送失败，错误码: %d, 错误信息: %s", result.ErrCode, result.ErrMsg)
	}
	return nil
}
