package config

// RateLimitConfig 定义认证类接口（登录、发送验证码）的限流参数
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" json:"burst" yaml:"burst"`
}
