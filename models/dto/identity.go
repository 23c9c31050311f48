package dto

// IdentityCredential 登录校验所需的最小字段集
type IdentityCredential struct {
	UserID     string `gorm:"column:user_id"`
	Credential string `gorm:"column:credential"` // 密码哈希，手机号身份为空
}
