package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/Xushengqwer/go-common/commonerrors"
	"gorm.io/gorm"

	"github.com/Xushengqwer/starter_hub/models/entities"
	"github.com/Xushengqwer/starter_hub/querybuilder"
)

// PostRepository 定义了帖子及其标签的数据访问接口。
// - 所有操作都限定在租户内。
type PostRepository interface {
	// CreatePost 创建帖子，post.Tags 会一并写入，db 可以是事务对象。
	CreatePost(ctx context.Context, db *gorm.DB, post *entities.Post) error

	// GetPostByID 查找帖子并预加载标签，未找到返回 commonerrors.ErrRepoNotFound。
	GetPostByID(ctx context.Context, tenantID, postID string) (*entities.Post, error)

	// UpdatePost 按 fields 更新帖子的列，db 可以是事务对象。
	UpdatePost(ctx context.Context, db *gorm.DB, tenantID, postID string, fields map[string]interface{}) error

	// ReplaceTags 用新的标签集合替换帖子现有的全部标签。
	ReplaceTags(ctx context.Context, db *gorm.DB, postID string, tags []string) error

	// DeletePost 软删除帖子并删除其标签，未找到返回 commonerrors.ErrRepoNotFound。
	DeletePost(ctx context.Context, db *gorm.DB, tenantID, postID string) error

	// IncrementViewCount 浏览数加一。
	IncrementViewCount(ctx context.Context, tenantID, postID string) error

	// Lister 返回租户内帖子列表的查询委托。
	Lister(tenantID string) querybuilder.CursorDelegate[entities.Post]
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository 创建 PostRepository。
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) CreatePost(ctx context.Context, db *gorm.DB, post *entities.Post) error {
	if err := db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("postRepo.CreatePost: 创建帖子失败: %w", err)
	}
	return nil
}

func (r *postRepository) GetPostByID(ctx context.Context, tenantID, postID string) (*entities.Post, error) {
	var post entities.Post
	err := r.db.WithContext(ctx).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("tenant_id = ? AND id = ?", tenantID, postID).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		return nil, fmt.Errorf("postRepo.GetPostByID: 查询帖子失败 (PostID: %s): %w", postID, err)
	}
	return &post, nil
}

func (r *postRepository) UpdatePost(ctx context.Context, db *gorm.DB, tenantID, postID string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	err := db.WithContext(ctx).
		Model(&entities.Post{}).
		Where("tenant_id = ? AND id = ?", tenantID, postID).
		Updates(fields).Error
	if err != nil {
		return fmt.Errorf("postRepo.UpdatePost: 更新帖子失败 (PostID: %s): %w", postID, err)
	}
	return nil
}

func (r *postRepository) ReplaceTags(ctx context.Context, db *gorm.DB, postID string, tags []string) error {
	tx := db.WithContext(ctx)
	if err := tx.Where("post_id = ?", postID).Delete(&entities.PostTag{}).Error; err != nil {
		return fmt.Errorf("postRepo.ReplaceTags: 删除旧标签失败 (PostID: %s): %w", postID, err)
	}
	if len(tags) == 0 {
		return nil
	}
	rows := make([]entities.PostTag, len(tags))
	for i, tag := range tags {
		rows[i] = entities.PostTag{PostID: postID, Tag: tag}
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("postRepo.ReplaceTags: 写入新标签失败 (PostID: %s): %w", postID, err)
	}
	return nil
}

func (r *postRepository) DeletePost(ctx context.Context, db *gorm.DB, tenantID, postID string) error {
	tx := db.WithContext(ctx)
	result := tx.Where("tenant_id = ? AND id = ?", tenantID, postID).Delete(&entities.Post{})
	if result.Error != nil {
		return fmt.Errorf("postRepo.DeletePost: 删除帖子失败 (PostID: %s): %w", postID, result.Error)
	}
	if result.RowsAffected == 0 {
		return commonerrors.ErrRepoNotFound
	}
	if err := tx.Where("post_id = ?", postID).Delete(&entities.PostTag{}).Error; err != nil {
		return fmt.Errorf("postRepo.DeletePost: 删除帖子标签失败 (PostID: %s): %w", postID, err)
	}
	return nil
}

func (r *postRepository) IncrementViewCount(ctx context.Context, tenantID, postID string) error {
	err := r.db.WithContext(ctx).
		Model(&entities.Post{}).
		Where("tenant_id = ? AND id = ?", tenantID, postID).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
	if err != nil {
		return fmt.Errorf("postRepo.IncrementViewCount: 更新浏览数失败 (PostID: %s): %w", postID, err)
	}
	return nil
}

func (r *postRepository) Lister(tenantID string) querybuilder.CursorDelegate[entities.Post] {
	return NewDelegate[entities.Post](r.db, PostModel, TenantScope(PostModel.Table, tenantID))
}
