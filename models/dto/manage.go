package dto

import "github.com/Xushengqwer/go-common/models/enums"

// UpdateUserDTO 管理员更新用户角色和状态，字段为 nil 表示不修改。
// - 使用指针，才能把角色更新为零值 RoleAdmin。
type UpdateUserDTO struct {
	UserRole *enums.UserRole   `json:"user_role" binding:"omitempty,Role" example:"1"`
	Status   *enums.UserStatus `json:"status" binding:"omitempty,Status" example:"0"`
}
