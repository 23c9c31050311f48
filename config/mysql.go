package config

import "time"

// MySQLConfig 数据库连接与连接池配置
type MySQLConfig struct {
	// DSN 例如 "user:password@tcp(host:port)/starter_hub?charset=utf8mb4&parseTime=True&loc=Local"
	DSN             string        `mapstructure:"dsn" json:"dsn" yaml:"dsn"`
	MaxOpenConn     int           `mapstructure:"max_open_conn" json:"max_open_conn" yaml:"max_open_conn"`
	MaxIdleConn     int           `mapstructure:"max_idle_conn" json:"max_idle_conn" yaml:"max_idle_conn"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" json:"conn_max_lifetime" yaml:"conn_max_lifetime"` // 为 0 时使用 1 小时
	// SkipMigrate 为 true 时启动不执行 AutoMigrate，表结构交给外部迁移工具
	SkipMigrate bool `mapstructure:"skip_migrate" json:"skip_migrate" yaml:"skip_migrate"`
}
