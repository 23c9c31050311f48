package config

import "time"

// RedisConfig Redis 连接配置。
// 验证码、令牌黑名单和通知队列共用同一个客户端，PoolSize 会在启动时按通知 worker 数向上调整。
type RedisConfig struct {
	Address      string        `mapstructure:"address" json:"address" yaml:"address"`
	Port         int           `mapstructure:"port" json:"port" yaml:"port"`
	Password     string        `mapstructure:"password" json:"password" yaml:"password"`
	DB           int           `mapstructure:"db" json:"db" yaml:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout" json:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" json:"read_timeout" yaml:"read_timeout"` // 需要大于通知队列的 pop_timeout
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout" yaml:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size" json:"pool_size" yaml:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns" json:"min_idle_conns" yaml:"min_idle_conns"`
}
