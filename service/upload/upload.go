package upload

import (
	"context"
	"fmt"
	"mime"
	"path"
	"regexp"
	"strings"

	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/apperrors"
	"github.com/Xushengqwer/starter_hub/config"
	"github.com/Xushengqwer/starter_hub/dependencies"
	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/models/vo"
	"github.com/Xushengqwer/starter_hub/utils"
)

const defaultMaxUploadBytes = 10 << 20

var (
	defaultAllowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	extPattern          = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)
)

// UploadService 为客户端直传对象存储签发上传地址。
type UploadService interface {
	Presign(ctx context.Context, tenantID, userID string, data dto.PresignUploadDTO) (*vo.PresignedUploadVO, error)
}

type uploadService struct {
	presigner    dependencies.ObjectPresigner
	allowedTypes map[string]struct{}
	maxBytes     int64
	logger       *zap.Logger
}

func NewUploadService(presigner dependencies.ObjectPresigner, cfg *config.StorageConfig, logger *zap.Logger) UploadService {
	types := cfg.AllowedMimeTypes
	if len(types) == 0 {
		types = defaultAllowedTypes
	}
	allowed := make(map[string]struct{}, len(types))
	for _, t := range types {
		allowed[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	maxBytes := cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &uploadService{
		presigner:    presigner,
		allowedTypes: allowed,
		maxBytes:     maxBytes,
		logger:       logger,
	}
}

func (s *uploadService) Presign(ctx context.Context, tenantID, userID string, data dto.PresignUploadDTO) (*vo.PresignedUploadVO, error) {
	const operation = "UploadService.Presign"

	mediaType, _, err := mime.ParseMediaType(data.ContentType)
	if err != nil {
		mediaType = strings.ToLower(data.ContentType)
	}
	if _, ok := s.allowedTypes[mediaType]; !ok {
		s.logger.Warn("不允许的上传类型", zap.String("operation", operation), zap.String("userID", userID), zap.String("contentType", data.ContentType))
		return nil, apperrors.ErrUploadTypeNotAllowed.WithArgs(map[string]any{"type": data.ContentType})
	}
	if data.Size > s.maxBytes {
		s.logger.Warn("上传文件过大", zap.String("operation", operation), zap.String("userID", userID), zap.Int64("size", data.Size))
		return nil, apperrors.ErrUploadTooLarge.WithArgs(map[string]any{"max": s.maxBytes})
	}

	key := utils.ObjectKeyPrefix(tenantID, userID, data.Purpose) + xid.New().String() + extension(data.FileName)
	signed, err := s.presigner.PresignPut(ctx, key, mediaType, data.Size)
	if err != nil {
		s.logger.Error("生成预签名上传地址失败",
			zap.String("operation", operation),
			zap.String("provider", s.presigner.Provider()),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, apperrors.ErrThirdPartyUnavailable.Wrap(fmt.Errorf("%s: %w", operation, err))
	}

	headers := make(map[string]string, len(signed.Headers))
	for name := range signed.Headers {
		headers[name] = signed.Headers.Get(name)
	}
	s.logger.Info("已签发上传地址", zap.String("operation", operation), zap.String("provider", s.presigner.Provider()), zap.String("key", key))
	return &vo.PresignedUploadVO{
		ObjectKey: key,
		URL:       signed.URL,
		Method:    signed.Method,
		Headers:   headers,
		ExpiresAt: signed.ExpiresAt,
	}, nil
}

// extension 取文件名的小写扩展名，不合法时返回空串。
func extension(fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if !extPattern.MatchString(ext) {
		return ""
	}
	return ext
}
