package vo

import (
	"time"

	commonEnums "github.com/Xushengqwer/go-common/models/enums"
)

// MyAccountDetailVO 当前登录用户的账号与资料
type MyAccountDetailVO struct {
	UserID     string                 `json:"user_id"`
	TenantID   string                 `json:"tenant_id"`
	UserRole   commonEnums.UserRole   `json:"user_role" example:"1"`
	Status     commonEnums.UserStatus `json:"status" example:"0"`
	Profile    *ProfileVO             `json:"profile"`
	Identities []IdentityVO           `json:"identities"`
	CreatedAt  time.Time              `json:"created_at"`
}
