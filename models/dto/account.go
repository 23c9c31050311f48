package dto

// AccountRegisterData 账号密码注册请求，租户由 X-Tenant-ID 请求头给出
type AccountRegisterData struct {
	Account         string `json:"account" binding:"required,Account" example:"alice_01"`
	Password        string `json:"password" binding:"required,Password" example:"abc123"`
	ConfirmPassword string `json:"confirmPassword" binding:"required" example:"abc123"` // 一致性在服务层检查，返回专门的错误消息
	Email           string `json:"email" binding:"omitempty,email" example:"alice@example.com"`
	Nickname        string `json:"nickname" binding:"omitempty,max=64" example:"小明"`
}

// AccountLoginData 账号密码登录请求
type AccountLoginData struct {
	Account  string `json:"account" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest 非 Web 端在请求体中提交刷新令牌，Web 端使用 Cookie
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordDTO 修改密码请求
type ChangePasswordDTO struct {
	OldPassword     string `json:"old_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,Password"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}
