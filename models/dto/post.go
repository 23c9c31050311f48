package dto

import "github.com/Xushengqwer/starter_hub/models/enums"

// CreatePostDTO 创建帖子，Publish 为 true 时直接发布
type CreatePostDTO struct {
	Title    string   `json:"title" binding:"required,max=255" example:"Hello"`
	Content  string   `json:"content" binding:"omitempty" example:"正文"`
	Category string   `json:"category" binding:"omitempty,max=64" example:"news"`
	Tags     []string `json:"tags" binding:"omitempty,max=10,dive,required,max=64"`
	CoverKey string   `json:"cover_key" binding:"omitempty,max=512"`
	Publish  bool     `json:"publish"`
}

// UpdatePostDTO 更新帖子，nil 字段不修改；Tags 非 nil 时整体替换
type UpdatePostDTO struct {
	Title    *string           `json:"title,omitempty" binding:"omitempty,max=255"`
	Content  *string           `json:"content,omitempty"`
	Category *string           `json:"category,omitempty" binding:"omitempty,max=64"`
	Tags     *[]string         `json:"tags,omitempty" binding:"omitempty,max=10,dive,required,max=64"`
	CoverKey *string           `json:"cover_key,omitempty" binding:"omitempty,max=512"`
	Status   *enums.PostStatus `json:"status,omitempty" binding:"omitempty,PostStatus"`
}
