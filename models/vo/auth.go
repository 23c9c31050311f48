package vo

// Userinfo 登录/注册后返回的用户标识
type Userinfo struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"` // Web 端写入 Cookie 后从响应中移除
}

type LoginResponse struct {
	User  Userinfo  `json:"user"`
	Token TokenPair `json:"token"`
	// Created 手机号登录时新建了账号
	Created bool `json:"created"`
}
