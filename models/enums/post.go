package enums

// PostStatus 帖子状态
type PostStatus string

const (
	PostDraft     PostStatus = "draft"     // 草稿，仅作者可见
	PostPublished PostStatus = "published" // 已发布
	PostArchived  PostStatus = "archived"  // 已归档
)
