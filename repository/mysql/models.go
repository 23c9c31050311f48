package mysql

import (
	"gorm.io/gorm/clause"
)

// 各实体可被列表接口查询的字段。
// Key: API 字段名 (客户端传入), Value: 数据库中的安全列名。
// 真正对客户端开放哪些字段由服务层的 querybuilder.Options 允许列表决定，这里只负责安全映射。

var TenantModel = &Model{
	Table: "tenants",
	Fields: map[string]Field{
		"id":         {Column: "id"},
		"slug":       {Column: "slug"},
		"name":       {Column: "name"},
		"status":     {Column: "status"},
		"created_at": {Column: "created_at"},
		"updated_at": {Column: "updated_at"},
	},
	CursorField: "id",
}

var UserModel = &Model{
	Table: "users",
	Fields: map[string]Field{
		"user_id":    {Column: "user_id"},
		"role":       {Column: "user_role"},
		"status":     {Column: "status"},
		"created_at": {Column: "created_at"},
		"updated_at": {Column: "updated_at"},
		// 资料表上的字段通过子查询过滤
		"nickname": {Match: subqueryMatch("users", "user_id", "user_profiles", "user_id", "nickname")},
		"city":     {Match: subqueryMatch("users", "user_id", "user_profiles", "user_id", "city")},
		"province": {Match: subqueryMatch("users", "user_id", "user_profiles", "user_id", "province")},
	},
	Relations: map[string]string{
		"profile":    "Profile",
		"identities": "Identities",
	},
	CursorField: "user_id",
}

var PostModel = &Model{
	Table: "posts",
	Fields: map[string]Field{
		"id":           {Column: "id"},
		"author_id":    {Column: "author_id"},
		"title":        {Column: "title"},
		"content":      {Column: "content"},
		"category":     {Column: "category"},
		"status":       {Column: "status"},
		"view_count":   {Column: "view_count"},
		"published_at": {Column: "published_at"},
		"created_at":   {Column: "created_at"},
		"updated_at":   {Column: "updated_at"},
		"tags":         {Match: subqueryMatch("posts", "id", "post_tags", "post_id", "tag")},
	},
	Relations: map[string]string{
		"tags":           "Tags",
		"author":         "Author",
		"author.profile": "Author.Profile",
	},
	CursorField: "id",
}

var NotificationModel = &Model{
	Table: "notifications",
	Fields: map[string]Field{
		"id":         {Column: "id"},
		"channel":    {Column: "channel"},
		"status":     {Column: "status"},
		"subject":    {Column: "subject"},
		"attempts":   {Column: "attempts"},
		"read_at":    {Column: "read_at"},
		"sent_at":    {Column: "sent_at"},
		"created_at": {Column: "created_at"},
	},
	CursorField: "id",
}

// subqueryMatch 生成 "outer.col IN (SELECT key FROM sub WHERE col <op> ?)" 形式的条件，
// 用于过滤一对一/一对多关联表上的字段。比较部分与主表字段共用同一套操作符实现。
func subqueryMatch(outerTable, outerCol, subTable, subKey, subCol string) func(op string, value any, insensitive bool) (clause.Expression, error) {
	return func(op string, value any, insensitive bool) (clause.Expression, error) {
		inner, err := compare(clause.Column{Table: subTable, Name: subCol}, subCol, op, value, insensitive)
		if err != nil {
			return nil, err
		}
		return clause.Expr{
			SQL: "? IN (SELECT ? FROM ? WHERE ?)",
			Vars: []any{
				clause.Column{Table: outerTable, Name: outerCol},
				clause.Column{Table: subTable, Name: subKey},
				clause.Table{Name: subTable},
				inner,
			},
		}, nil
	}
}
