package config

// SentryConfig 定义外部错误追踪 (Sentry) 的配置，DSN 为空时不启用
type SentryConfig struct {
	DSN              string  `mapstructure:"dsn" json:"dsn" yaml:"dsn"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate" json:"traces_sample_rate" yaml:"traces_sample_rate"`
}
