package entities

import (
	"time"

	"github.com/Xushengqwer/starter_hub/models/enums"
)

// Notification 一条待发送或已发送的通知（邮件 / 短信）
type Notification struct {
	ID        string                    `gorm:"type:char(36);primary_key"`
	TenantID  string                    `gorm:"type:char(36);not null;index"`
	UserID    string                    `gorm:"type:char(36);index"`
	Channel   enums.NotificationChannel `gorm:"type:varchar(16);not null"`
	Recipient string                    `gorm:"type:varchar(255);not null"`
	Subject   string                    `gorm:"type:varchar(255)"`
	Body      string                    `gorm:"type:text"`
	Status    enums.NotificationStatus  `gorm:"type:varchar(16);not null;default:'pending';index"`
	Attempts  int                       `gorm:"not null;default:0"`
	LastError string                    `gorm:"type:varchar(1024)"`
	ReadAt    *time.Time                `gorm:"type:timestamp"`
	SentAt    *time.Time                `gorm:"type:timestamp"`
	CreatedAt time.Time                 `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;index"`
	UpdatedAt time.Time                 `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;autoUpdateTime"`
}
