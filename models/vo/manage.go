package vo

import (
	"time"

	"github.com/Xushengqwer/go-common/models/enums"

	"github.com/Xushengqwer/starter_hub/querybuilder"
)

// UserVO 管理端返回的用户，字段由实体投影而来；Profile/Identities 仅在 include 时出现
type UserVO struct {
	UserID     string           `json:"user_id" example:"123e4567-e89b-12d3-a456-426614174000"`
	TenantID   string           `json:"tenant_id"`
	UserRole   enums.UserRole   `json:"user_role" example:"1"`
	Status     enums.UserStatus `json:"status" example:"0"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Profile    *ProfileVO       `json:"profile,omitempty"`
	Identities []IdentityVO     `json:"identities,omitempty"`
}

// UserPageVO 用户分页列表
type UserPageVO struct {
	Items    []UserVO              `json:"items"`
	Metadata querybuilder.Metadata `json:"metadata"`
}
