package config

// QueryConfig 定义列表查询的分页默认值
type QueryConfig struct {
	DefaultLimit int `mapstructure:"default_limit" json:"default_limit" yaml:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit" json:"max_limit" yaml:"max_limit"`
}
