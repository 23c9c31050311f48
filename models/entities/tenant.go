package entities

import (
	"time"

	"github.com/Xushengqwer/starter_hub/models/enums"
	"gorm.io/gorm"
)

// Tenant 租户。所有业务数据都通过 tenant_id 归属到某个租户。
type Tenant struct {
	ID        string             `gorm:"type:char(36);primary_key"`
	Slug      string             `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name      string             `gorm:"type:varchar(255);not null"`
	Status    enums.TenantStatus `gorm:"type:varchar(16);not null;default:'active'"`
	CreatedAt time.Time          `gorm:"type:timestamp;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time          `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;autoUpdateTime"`
	DeletedAt gorm.DeletedAt     `gorm:"type:timestamp;column:deleted_at;index"`
}
