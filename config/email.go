package config

// EmailConfig 定义 SendGrid 邮件发送的相关配置
type EmailConfig struct {
	APIKey    string `mapstructure:"api_key" json:"api_key" yaml:"api_key"`       // SendGrid API Key
	Host      string `mapstructure:"host" json:"host" yaml:"host"`                // API 地址，默认 https://api.sendgrid.com
	FromName  string `mapstructure:"from_name" json:"from_name" yaml:"from_name"` // 发件人名称
	FromEmail string `mapstructure:"from_email" json:"from_email" yaml:"from_email"`
}
