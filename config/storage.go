package config

import "time"

// StorageConfig 定义文件上传预签名使用的对象存储配置。
// Provider 取值 "s3" 或 "cos"，决定使用哪一个预签名实现。
type StorageConfig struct {
	Provider         string        `mapstructure:"provider" json:"provider" yaml:"provider"`
	PresignTTL       time.Duration `mapstructure:"presign_ttl" json:"presign_ttl" yaml:"presign_ttl"`                      // 预签名 URL 有效期
	MaxUploadBytes   int64         `mapstructure:"max_upload_bytes" json:"max_upload_bytes" yaml:"max_upload_bytes"`       // 单个文件大小上限
	AllowedMimeTypes []string      `mapstructure:"allowed_mime_types" json:"allowed_mime_types" yaml:"allowed_mime_types"` // 允许的 Content-Type
	S3               S3Config      `mapstructure:"s3" json:"s3" yaml:"s3"`
	COS              COSConfig     `mapstructure:"cos" json:"cos" yaml:"cos"`
}

// S3Config 定义 AWS S3 (或兼容 S3 协议的存储，如 MinIO) 的配置
type S3Config struct {
	Region          string `mapstructure:"region" json:"region" yaml:"region"`
	Bucket          string `mapstructure:"bucket" json:"bucket" yaml:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id" json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" json:"secret_access_key" yaml:"secret_access_key"`
	Endpoint        string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint"`                   // 可选：自定义端点
	UsePathStyle    bool   `mapstructure:"use_path_style" json:"use_path_style" yaml:"use_path_style"` // MinIO 等需要 path-style
}
