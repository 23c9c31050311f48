package vo

import (
	"time"

	"github.com/Xushengqwer/starter_hub/models/enums"
)

// IdentityVO 登录方式，不包含凭证
type IdentityVO struct {
	IdentityType enums.IdentityType `json:"identity_type" example:"0"`
	Identifier   string             `json:"identifier" example:"user123"`
	CreatedAt    time.Time          `json:"created_at"`
}
