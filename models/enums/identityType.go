package enums

// IdentityType 身份类型枚举
type IdentityType uint

const (
	AccountPassword   IdentityType = 0 // 账号密码（网站）
	WechatMiniProgram IdentityType = 1 // 微信小程序，已下线，保留取值以兼容历史数据
	Phone             IdentityType = 2 // 手机号（APP）
	Email             IdentityType = 3 // 邮箱
)
