package dependencies

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/config"
)

// PresignedUpload 是一次直传对象存储所需的全部信息，客户端按 Method/URL/Headers 原样发起请求。
type PresignedUpload struct {
	URL       string
	Method    string
	Headers   http.Header
	ExpiresAt time.Time
}

// ObjectPresigner 为对象 key 生成限时的上传地址，服务端不经手文件内容。
type ObjectPresigner interface {
	PresignPut(ctx context.Context, key, contentType string, size int64) (*PresignedUpload, error)
	// Provider 返回实现名（s3 / cos），用于日志和指标。
	Provider() string
}

// InitStorage 按 cfg.Provider 选择对象存储实现。
func InitStorage(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (ObjectPresigner, error) {
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	switch cfg.Provider {
	case "", "s3":
		return InitS3(ctx, &cfg.S3, ttl, logger)
	case "cos":
		return InitCOS(&cfg.COS, ttl, logger)
	default:
		return nil, fmt.Errorf("未知的对象存储类型: %q", cfg.Provider)
	}
}
