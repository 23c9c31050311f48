package config

// COSConfig 腾讯云对象存储配置，StorageConfig.Provider 为 "cos" 时生效
type COSConfig struct {
	SecretID   string `mapstructure:"secret_id" json:"secret_id" yaml:"secret_id"`
	SecretKey  string `mapstructure:"secret_key" json:"secret_key" yaml:"secret_key"`
	BucketName string `mapstructure:"bucket_name" json:"bucket_name" yaml:"bucket_name"` // 不带 APPID 后缀的桶名
	AppID      string `mapstructure:"app_id" json:"app_id" yaml:"app_id"`
	Region     string `mapstructure:"region" json:"region" yaml:"region"` // 例如 ap-guangzhou
	// BaseURL 可选，配置 CDN 域名时用于拼接公开访问地址
	BaseURL string `mapstructure:"base_url" json:"base_url" yaml:"base_url"`
}
