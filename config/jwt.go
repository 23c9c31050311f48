package config

// JWTConfig 令牌签名配置。访问令牌和刷新令牌使用不同的密钥，
// 有效期见 constants.AccessTokenTTL / constants.RefreshTokenTTL。
type JWTConfig struct {
	SecretKey     string `mapstructure:"secret_key" json:"secret_key" yaml:"secret_key"`
	RefreshSecret string `mapstructure:"refresh_secret" json:"refresh_secret" yaml:"refresh_secret"`
	Issuer        string `mapstructure:"issuer" json:"issuer" yaml:"issuer"`
}
