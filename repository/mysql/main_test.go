package mysql

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/Xushengqwer/starter_hub/models/entities"
	localenums "github.com/Xushengqwer/starter_hub/models/enums"
	"github.com/Xushengqwer/starter_hub/repository/mysql/mysqltest"
)

func newTestDB(t *testing.T) *gorm.DB {
	return mysqltest.NewDB(t)
}

func seedUser(t *testing.T, db *gorm.DB, tenantID, nickname string) *entities.User {
	t.Helper()
	u := &entities.User{
		UserID:   uuid.NewString(),
		TenantID: tenantID,
		UserRole: enums.RoleUser,
		Status:   enums.StatusActive,
		Profile: &entities.UserProfile{
			Nickname: nickname,
			Email:    gofakeit.Email(),
			City:     gofakeit.City(),
		},
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

type postSeed struct {
	title    string
	category string
	status   localenums.PostStatus
	views    int64
	tags     []string
}

// seedPosts 按顺序插入帖子，created_at 依次递增一分钟。
func seedPosts(t *testing.T, db *gorm.DB, tenantID, authorID string, seeds []postSeed) []entities.Post {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]entities.Post, 0, len(seeds))
	for i, s := range seeds {
		p := entities.Post{
			ID:        uuid.NewString(),
			TenantID:  tenantID,
			AuthorID:  authorID,
			Title:     s.title,
			Content:   gofakeit.Paragraph(1, 2, 8, " "),
			Category:  s.category,
			Status:    s.status,
			ViewCount: s.views,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		for _, tag := range s.tags {
			p.Tags = append(p.Tags, entities.PostTag{Tag: tag})
		}
		require.NoError(t, db.Create(&p).Error)
		out = append(out, p)
	}
	return out
}
