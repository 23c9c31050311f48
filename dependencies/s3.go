package dependencies

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/config"
)

type s3Presigner struct {
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
}

// InitS3 初始化 S3 预签名客户端。配置了 Endpoint 时可以指向 MinIO 等兼容存储。
// - 未配置 AccessKeyID 时使用 SDK 默认的凭证链（环境变量、实例角色等）。
func InitS3(ctx context.Context, cfg *config.S3Config, ttl time.Duration, logger *zap.Logger) (ObjectPresigner, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		logger.Error("S3 配置不完整", zap.String("bucket", cfg.Bucket), zap.String("region", cfg.Region))
		return nil, fmt.Errorf("S3 配置不完整，缺少 bucket 或 region")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("加载 AWS 配置失败: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	logger.Info("S3 客户端初始化成功",
		zap.String("bucket", cfg.Bucket),
		zap.String("region", cfg.Region),
		zap.String("endpoint", cfg.Endpoint),
		zap.Duration("presignTTL", ttl),
	)
	return &s3Presigner{
		presign: s3.NewPresignClient(client, s3.WithPresignExpires(ttl)),
		bucket:  cfg.Bucket,
		ttl:     ttl,
	}, nil
}

func (p *s3Presigner) Provider() string { return "s3" }

func (p *s3Presigner) PresignPut(ctx context.Context, key, contentType string, size int64) (*PresignedUpload, error) {
	expiresAt := time.Now().Add(p.ttl)
	req, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return nil, fmt.Errorf("生成 S3 预签名地址失败 (key: %s): %w", key, err)
	}

	// 签名覆盖了 Content-Type/Content-Length，客户端必须带上同样的头
	headers := http.Header{}
	for name, values := range req.SignedHeader {
		if http.CanonicalHeaderKey(name) == "Host" {
			continue
		}
		headers[http.CanonicalHeaderKey(name)] = values
	}
	return &PresignedUpload{
		URL:       req.URL,
		Method:    req.Method,
		Headers:   headers,
		ExpiresAt: expiresAt,
	}, nil
}
