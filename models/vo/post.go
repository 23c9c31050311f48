package vo

import (
	"time"

	"github.com/Xushengqwer/starter_hub/models/enums"
	"github.com/Xushengqwer/starter_hub/querybuilder"
)

type PostTagVO struct {
	Tag string `json:"tag"`
}

// PostAuthorVO 帖子作者，只暴露公开资料
type PostAuthorVO struct {
	UserID  string     `json:"user_id"`
	Profile *ProfileVO `json:"profile,omitempty"`
}

type PostVO struct {
	ID          string           `json:"id"`
	AuthorID    string           `json:"author_id"`
	Title       string           `json:"title"`
	Content     string           `json:"content"`
	Category    string           `json:"category"`
	Status      enums.PostStatus `json:"status"`
	CoverKey    string           `json:"cover_key,omitempty"`
	ViewCount   int64            `json:"view_count"`
	PublishedAt *time.Time       `json:"published_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Tags        []PostTagVO      `json:"tags"`
	Author      *PostAuthorVO    `json:"author,omitempty"`
}

type PostPageVO struct {
	Items    []PostVO              `json:"items"`
	Metadata querybuilder.Metadata `json:"metadata"`
}

// PostFeedVO 游标分页结果
type PostFeedVO struct {
	Data       []PostVO            `json:"data"`
	NextCursor querybuilder.Cursor `json:"nextCursor,omitempty"`
}
