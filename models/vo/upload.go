package vo

import "time"

// PresignedUploadVO 客户端按 method/url/headers 直接把文件 PUT 到对象存储
type PresignedUploadVO struct {
	ObjectKey string            `json:"objectKey"`
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expiresAt"`
}
