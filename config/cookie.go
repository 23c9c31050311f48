package config

// CookieConfig Web 端刷新令牌 Cookie 的属性。
// App 端的刷新令牌放在响应体里，不受这些配置影响。
type CookieConfig struct {
	// Domain 为空时只对当前主机生效；".example.com" 会同时覆盖子域名
	Domain string `mapstructure:"domain" json:"domain" yaml:"domain"`
	Path   string `mapstructure:"path" json:"path" yaml:"path"`

	// Secure / HttpOnly 在生产环境必须为 true
	Secure   bool `mapstructure:"secure" json:"secure" yaml:"secure"`
	HttpOnly bool `mapstructure:"http_only" json:"http_only" yaml:"http_only"`

	// SameSite 取 "Lax"、"Strict" 或 "None"，未知值按 Lax 处理；"None" 要求 Secure=true
	SameSite string `mapstructure:"same_site" json:"same_site" yaml:"same_site"`

	RefreshTokenName string `mapstructure:"refresh_token_name" json:"refresh_token_name" yaml:"refresh_token_name"`
}

// TokenCookieName 返回刷新令牌 Cookie 名，未配置时为 "refresh_token"。
func (c CookieConfig) TokenCookieName() string {
	if c.RefreshTokenName == "" {
		return "refresh_token"
	}
	return c.RefreshTokenName
}
