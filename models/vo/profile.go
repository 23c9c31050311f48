package vo

import (
	"time"

	"github.com/Xushengqwer/starter_hub/models/enums"
)

// ProfileVO 用户资料
type ProfileVO struct {
	Nickname  string       `json:"nickname" example:"小明"`
	Email     string       `json:"email,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	AvatarURL string       `json:"avatar_url" example:"tenants/t1/users/u1/avatar/abc.png"`
	Gender    enums.Gender `json:"gender" example:"1"`
	Province  string       `json:"province" example:"广东"`
	City      string       `json:"city" example:"深圳"`
	UpdatedAt time.Time    `json:"updated_at"`
}
