package config

import "time"

// NotificationConfig 定义通知投递 worker 和重试任务的配置
type NotificationConfig struct {
	Workers       int           `mapstructure:"workers" json:"workers" yaml:"workers"`                      // 并发 worker 数
	PopTimeout    time.Duration `mapstructure:"pop_timeout" json:"pop_timeout" yaml:"pop_timeout"`          // BRPOP 阻塞超时
	MaxAttempts   int           `mapstructure:"max_attempts" json:"max_attempts" yaml:"max_attempts"`       // 最大投递次数
	RetrySchedule string        `mapstructure:"retry_schedule" json:"retry_schedule" yaml:"retry_schedule"` // cron 表达式，例如 "@every 1m"
}
