package config

// I18nConfig 定义多语言相关配置
type I18nConfig struct {
	DefaultLanguage    string   `mapstructure:"default_language" json:"default_language" yaml:"default_language"`          // 例如 "en"
	SupportedLanguages []string `mapstructure:"supported_languages" json:"supported_languages" yaml:"supported_languages"` // 例如 ["en", "zh"]
}
