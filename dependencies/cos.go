package dependencies

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tencentyun/cos-go-sdk-v5"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/config"
)

type cosPresigner struct {
	client *cos.Client
	cfg    *config.COSConfig
	ttl    time.Duration
}

// InitCOS 初始化腾讯云 COS 预签名客户端
func InitCOS(cfg *config.COSConfig, ttl time.Duration, logger *zap.Logger) (ObjectPresigner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("COS 配置不能为nil")
	}
	if cfg.SecretID == "" || cfg.SecretKey == "" || cfg.BucketName == "" || cfg.AppID == "" || cfg.Region == "" {
		logger.Error("COS 配置不完整", zap.String("bucket", cfg.BucketName), zap.String("region", cfg.Region))
		return nil, fmt.Errorf("COS 配置不完整，缺少关键字段 (SecretID, SecretKey, BucketName, AppID, Region)")
	}

	bucketURL := fmt.Sprintf("https://%s-%s.cos.%s.myqcloud.com", cfg.BucketName, cfg.AppID, cfg.Region)
	u, err := url.Parse(bucketURL)
	if err != nil {
		return nil, fmt.Errorf("解析 COS 存储桶 URL '%s' 失败: %w", bucketURL, err)
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
		},
	})

	logger.Info("COS 客户端初始化成功",
		zap.String("存储桶名称", cfg.BucketName),
		zap.String("地域", cfg.Region),
		zap.Duration("presignTTL", ttl),
	)
	return &cosPresigner{client: client, cfg: cfg, ttl: ttl}, nil
}

func (c *cosPresigner) Provider() string { return "cos" }

func (c *cosPresigner) PresignPut(ctx context.Context, key, contentType string, size int64) (*PresignedUpload, error) {
	expiresAt := time.Now().Add(c.ttl)
	u, err := c.client.Object.GetPresignedURL(ctx, http.MethodPut, key, c.cfg.SecretID, c.cfg.SecretKey, c.ttl, nil)
	if err != nil {
		return nil, fmt.Errorf("生成 COS 预签名地址失败 (key: %s): %w", key, err)
	}
	headers := http.Header{}
	headers.Set("Content-Type", contentType)
	return &PresignedUpload{
		URL:       u.String(),
		Method:    http.MethodPut,
		Headers:   headers,
		ExpiresAt: expiresAt,
	}, nil
}
