package enums

// TenantStatus 租户状态
type TenantStatus string

const (
	TenantActive   TenantStatus = "active"   // 正常
	TenantDisabled TenantStatus = "disabled" // 已停用，所有请求按租户不存在处理
)
