package entities

// Models 返回需要自动迁移的全部实体，启动和测试共用同一份列表。
func Models() []any {
	return []any{
		&Tenant{},
		&User{},
		&UserIdentity{},
		&UserProfile{},
		&Post{},
		&PostTag{},
		&Notification{},
	}
}
