package dto

import "github.com/Xushengqwer/starter_hub/models/enums"

// UpdateProfileDTO 更新个人资料，只有请求中出现的字段才会被更新
type UpdateProfileDTO struct {
	Nickname *string       `json:"nickname,omitempty" binding:"omitempty,max=64" example:"小明"`
	Email    *string       `json:"email,omitempty" binding:"omitempty,email" example:"alice@example.com"`
	Gender   *enums.Gender `json:"gender,omitempty" binding:"omitempty,Gender" example:"1"`
	Province *string       `json:"province,omitempty" binding:"omitempty,max=64" example:"广东"`
	City     *string       `json:"city,omitempty" binding:"omitempty,max=64" example:"深圳"`
	// AvatarKey 通过 /uploads/presign 上传后得到的对象 key
	AvatarKey *string `json:"avatar_key,omitempty" binding:"omitempty,max=255"`
}
