package entities

import (
	"time"

	"github.com/Xushengqwer/starter_hub/models/enums"
	"gorm.io/gorm"
)

// UserIdentity 用户身份信息（登录方式）
type UserIdentity struct {
	// 自增主键
	IdentityID uint `gorm:"primary_key;auto_increment"`

	// 所属租户，同一租户内 (类型, 标识符) 唯一
	TenantID string `gorm:"type:char(36);not null;uniqueIndex:idx_tenant_type_identifier"`

	// 关联 User 表的 UserID
	UserID string `gorm:"type:char(36);not null;index"`

	// 身份类型（0=账号密码, 2=手机号, 3=邮箱）
	IdentityType enums.IdentityType `gorm:"type:int;not null;uniqueIndex:idx_tenant_type_identifier"`

	// 标识符，如账号、手机号、邮箱
	Identifier string `gorm:"type:varchar(255);not null;uniqueIndex:idx_tenant_type_identifier"`

	// 凭证，如密码哈希；手机号登录为空
	Credential string `gorm:"type:varchar(255)"`

	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;autoUpdateTime"`

	// 软删除，注销用户时与用户一并删除
	DeletedAt gorm.DeletedAt `gorm:"type:timestamp;column:deleted_at;index"`
}
