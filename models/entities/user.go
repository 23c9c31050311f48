package entities

import (
	"time"

	"github.com/Xushengqwer/go-common/models/enums"
	"gorm.io/gorm"
)

// User 用户核心信息
type User struct {
	// 用户ID，使用 UUID 作为主键
	UserID string `gorm:"type:char(36);primary_key"`

	// 所属租户 ID
	TenantID string `gorm:"type:char(36);not null;index"`

	// 用户角色，由服务层显式写入（不设数据库默认值，避免零值被默认值覆盖）
	UserRole enums.UserRole `gorm:"type:int;not null"`

	// 用户状态（活跃 / 拉黑）
	Status enums.UserStatus `gorm:"type:int;not null"`

	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;autoUpdateTime"`

	// 软删除时间戳，列名为 deleted_at
	DeletedAt gorm.DeletedAt `gorm:"type:timestamp;column:deleted_at;index"`

	// 关联的资料与身份，只在显式预加载时填充
	Profile    *UserProfile   `gorm:"foreignKey:UserID;references:UserID"`
	Identities []UserIdentity `gorm:"foreignKey:UserID;references:UserID"`
}
