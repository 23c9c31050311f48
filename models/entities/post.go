package entities

import (
	"time"

	"github.com/Xushengqwer/starter_hub/models/enums"
	"gorm.io/gorm"
)

// Post 帖子
type Post struct {
	ID       string `gorm:"type:char(36);primary_key"`
	TenantID string `gorm:"type:char(36);not null;index"`
	AuthorID string `gorm:"type:char(36);not null;index"`

	Title    string           `gorm:"type:varchar(255);not null"`
	Content  string           `gorm:"type:text"`
	Category string           `gorm:"type:varchar(64);index"`
	Status   enums.PostStatus `gorm:"type:varchar(16);not null;default:'draft';index"`

	// 封面图片在对象存储中的 key，通过上传预签名获得
	CoverKey string `gorm:"type:varchar(512)"`

	ViewCount   int64      `gorm:"not null;default:0"`
	PublishedAt *time.Time `gorm:"type:timestamp"`

	CreatedAt time.Time      `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;index"`
	UpdatedAt time.Time      `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"type:timestamp;column:deleted_at;index"`

	Tags   []PostTag `gorm:"foreignKey:PostID;references:ID"`
	Author *User     `gorm:"foreignKey:AuthorID;references:UserID"`
}

// PostTag 帖子标签，一个帖子多行
type PostTag struct {
	ID     uint   `gorm:"primary_key;auto_increment"`
	PostID string `gorm:"type:char(36);not null;index"`
	Tag    string `gorm:"type:varchar(64);not null;index"`
}
