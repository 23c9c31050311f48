package dto

// CreateTenantDTO 平台管理员创建租户
type CreateTenantDTO struct {
	Slug string `json:"slug" binding:"required,Slug" example:"acme"`
	Name string `json:"name" binding:"required,max=255" example:"Acme Inc."`
}
