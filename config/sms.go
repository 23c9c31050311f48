package config

// SMSConfig 短信通道配置（微信云托管短信接口）。
// 任一必填项为空时不启用短信，短信通知会在投递时失败并进入重试。
type SMSConfig struct {
	AppID      string `mapstructure:"appID" json:"appID" yaml:"appID"`
	Secret     string `mapstructure:"secret" json:"secret" yaml:"secret"`
	Endpoint   string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint"`
	TemplateID string `mapstructure:"templateID" json:"templateID" yaml:"templateID"` // 验证码短信模板
	Env        string `mapstructure:"env" json:"env" yaml:"env"`                      // 云托管环境 ID
}
