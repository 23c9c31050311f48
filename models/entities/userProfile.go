package entities

import (
	"time"

	"github.com/Xushengqwer/starter_hub/models/enums"
	"gorm.io/gorm"
)

// UserProfile 用户资料，按 UserID 与 User 一对一
type UserProfile struct {
	ID     uint   `gorm:"primary_key;auto_increment"`
	UserID string `gorm:"type:char(36);not null;uniqueIndex"` // 一个用户一份资料

	Nickname string `gorm:"type:varchar(255)"`
	// Email / Phone 是通知的投递地址，和登录身份相互独立
	Email string `gorm:"type:varchar(255)"`
	Phone string `gorm:"type:varchar(32)"`
	// AvatarURL 存的是对象存储 key，不是完整 URL
	AvatarURL string       `gorm:"type:varchar(255)"`
	Gender    enums.Gender `gorm:"type:int;default:0"`
	Province  string       `gorm:"type:varchar(255)"`
	City      string       `gorm:"type:varchar(255)"`

	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;autoUpdateTime"`

	// 软删除
	DeletedAt gorm.DeletedAt `gorm:"type:timestamp;column:deleted_at;index"`
}
