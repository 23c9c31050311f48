package post

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	commonenums "github.com/Xushengqwer/go-common/models/enums"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/starter_hub/apperrors"
	"github.com/Xushengqwer/starter_hub/events"
	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/models/entities"
	"github.com/Xushengqwer/starter_hub/models/enums"
	"github.com/Xushengqwer/starter_hub/querybuilder"
	"github.com/Xushengqwer/starter_hub/repository/mysql"
	"github.com/Xushengqwer/starter_hub/utils"
)

var postQueryOptions = querybuilder.Options{
	AllowedSortFields:   []string{"created_at", "updated_at", "title", "view_count", "published_at"},
	AllowedFilterFields: []string{"status", "category", "tags", "author_id", "created_at", "published_at", "view_count"},
	AllowedSearchFields: []string{"title", "content"},
}

// Actor 发起请求的用户；公开接口传 nil。
type Actor struct {
	UserID string
	Role   commonenums.UserRole
}

func (a *Actor) isAdmin() bool { return a != nil && a.Role == commonenums.RoleAdmin }

func (a *Actor) canEdit(p *entities.Post) bool {
	return a != nil && (a.isAdmin() || a.UserID == p.AuthorID)
}

// PostService 租户内帖子的增删改查。草稿只有作者和管理员可见。
type PostService interface {
	Create(ctx context.Context, tenantID string, author Actor, data dto.CreatePostDTO) (*entities.Post, error)

	// Get 查看帖子，已发布的帖子浏览数加一。
	Get(ctx context.Context, tenantID string, viewer *Actor, postID string) (*entities.Post, error)

	// Update 只有作者或管理员可以修改，状态第一次变为已发布时记录发布时间。
	Update(ctx context.Context, tenantID string, actor Actor, postID string, data dto.UpdatePostDTO) (*entities.Post, error)

	Delete(ctx context.Context, tenantID string, actor Actor, postID string) error

	// List 偏移分页；非管理员只能看到已发布的帖子。
	List(ctx context.Context, tenantID string, viewer *Actor, q querybuilder.QueryOptions) (*querybuilder.PaginatedResult[entities.Post], error)

	// ListMine 作者自己的全部帖子，包括草稿和归档。
	ListMine(ctx context.Context, tenantID, authorID string, q querybuilder.QueryOptions) (*querybuilder.PaginatedResult[entities.Post], error)

	// Feed 已发布帖子的游标分页。
	Feed(ctx context.Context, tenantID string, q querybuilder.QueryOptions) (*querybuilder.CursorResult[entities.Post], error)
}

type postService struct {
	postRepo  mysql.PostRepository
	db        *gorm.DB
	bus       *events.Bus
	queryOpts querybuilder.Options
	now       func() time.Time
	logger    *zap.Logger
}

func NewPostService(postRepo mysql.PostRepository, db *gorm.DB, bus *events.Bus, defaults querybuilder.Options, logger *zap.Logger) PostService {
	return &postService{
		postRepo:  postRepo,
		db:        db,
		bus:       bus,
		queryOpts: defaults.Merge(postQueryOptions),
		now:       time.Now,
		logger:    logger,
	}
}

func (s *postService) Create(ctx context.Context, tenantID string, author Actor, data dto.CreatePostDTO) (*entities.Post, error) {
	const operation = "PostService.Create"

	if data.CoverKey != "" && !utils.OwnsObjectKey(data.CoverKey, tenantID, author.UserID, "post") {
		s.logger.Warn("封面 key 不属于当前用户", zap.String("operation", operation), zap.String("userID", author.UserID))
		return nil, apperrors.ErrPermissionDenied
	}

	p := &entities.Post{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		AuthorID: author.UserID,
		Title:    data.Title,
		Content:  data.Content,
		Category: data.Category,
		CoverKey: data.CoverKey,
		Status:   enums.PostDraft,
	}
	for _, tag := range normalizeTags(data.Tags) {
		p.Tags = append(p.Tags, entities.PostTag{Tag: tag})
	}
	if data.Publish {
		now := s.now()
		p.Status = enums.PostPublished
		p.PublishedAt = &now
	}

	if err := s.postRepo.CreatePost(ctx, s.db, p); err != nil {
		s.logger.Error("创建帖子失败", zap.String("operation", operation), zap.String("authorID", author.UserID), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	if p.Status == enums.PostPublished {
		s.publish(p)
	}

	s.logger.Info("帖子创建成功", zap.String("operation", operation), zap.String("postID", p.ID), zap.String("status", string(p.Status)))
	return p, nil
}

func (s *postService) Get(ctx context.Context, tenantID string, viewer *Actor, postID string) (*entities.Post, error) {
	const operation = "PostService.Get"

	p, err := s.load(ctx, operation, tenantID, postID)
	if err != nil {
		return nil, err
	}
	if p.Status != enums.PostPublished {
		if !viewer.canEdit(p) {
			return nil, apperrors.ErrPostNotFound
		}
		return p, nil
	}

	if err := s.postRepo.IncrementViewCount(ctx, tenantID, postID); err != nil {
		// 浏览数不影响读取
		s.logger.Warn("增加浏览数失败", zap.String("operation", operation), zap.String("postID", postID), zap.Error(err))
	} else {
		p.ViewCount++
	}
	return p, nil
}

func (s *postService) Update(ctx context.Context, tenantID string, actor Actor, postID string, data dto.UpdatePostDTO) (*entities.Post, error) {
	const operation = "PostService.Update"

	p, err := s.load(ctx, operation, tenantID, postID)
	if err != nil {
		return nil, err
	}
	if !actor.canEdit(p) {
		s.logger.Warn("无权修改帖子", zap.String("operation", operation), zap.String("postID", postID), zap.String("userID", actor.UserID))
		return nil, apperrors.ErrPostForbidden
	}

	fields := make(map[string]interface{})
	if data.Title != nil {
		fields["title"] = *data.Title
	}
	if data.Content != nil {
		fields["content"] = *data.Content
	}
	if data.Category != nil {
		fields["category"] = *data.Category
	}
	if data.CoverKey != nil {
		if *data.CoverKey != "" && !utils.OwnsObjectKey(*data.CoverKey, tenantID, p.AuthorID, "post") {
			return nil, apperrors.ErrPermissionDenied
		}
		fields["cover_key"] = *data.CoverKey
	}
	becamePublished := false
	if data.Status != nil && *data.Status != p.Status {
		fields["status"] = *data.Status
		if *data.Status == enums.PostPublished {
			becamePublished = true
			if p.PublishedAt == nil {
				fields["published_at"] = s.now()
			}
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.postRepo.UpdatePost(ctx, tx, tenantID, postID, fields); err != nil {
			return err
		}
		if data.Tags != nil {
			return s.postRepo.ReplaceTags(ctx, tx, postID, normalizeTags(*data.Tags))
		}
		return nil
	})
	if err != nil {
		s.logger.Error("更新帖子失败", zap.String("operation", operation), zap.String("postID", postID), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	updated, err := s.load(ctx, operation, tenantID, postID)
	if err != nil {
		return nil, err
	}
	if becamePublished {
		s.publish(updated)
	}
	s.logger.Info("帖子更新成功", zap.String("operation", operation), zap.String("postID", postID), zap.Int("fields", len(fields)))
	return updated, nil
}

func (s *postService) Delete(ctx context.Context, tenantID string, actor Actor, postID string) error {
	const operation = "PostService.Delete"

	p, err := s.load(ctx, operation, tenantID, postID)
	if err != nil {
		return err
	}
	if !actor.canEdit(p) {
		s.logger.Warn("无权删除帖子", zap.String("operation", operation), zap.String("postID", postID), zap.String("userID", actor.UserID))
		return apperrors.ErrPostForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.postRepo.DeletePost(ctx, tx, tenantID, postID)
	})
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			return apperrors.ErrPostNotFound
		}
		s.logger.Error("删除帖子失败", zap.String("operation", operation), zap.String("postID", postID), zap.Error(err))
		return fmt.Errorf("%s: %w", operation, err)
	}
	s.logger.Info("帖子已删除", zap.String("operation", operation), zap.String("postID", postID), zap.String("userID", actor.UserID))
	return nil
}

func (s *postService) List(ctx context.Context, tenantID string, viewer *Actor, q querybuilder.QueryOptions) (*querybuilder.PaginatedResult[entities.Post], error) {
	if !viewer.isAdmin() {
		q.Filters = withFilter(q.Filters, "status", string(enums.PostPublished))
	}
	return querybuilder.Build[entities.Post](ctx, s.postRepo.Lister(tenantID), q, s.queryOpts)
}

func (s *postService) ListMine(ctx context.Context, tenantID, authorID string, q querybuilder.QueryOptions) (*querybuilder.PaginatedResult[entities.Post], error) {
	q.Filters = withFilter(q.Filters, "author_id", authorID)
	return querybuilder.Build[entities.Post](ctx, s.postRepo.Lister(tenantID), q, s.queryOpts)
}

func (s *postService) Feed(ctx context.Context, tenantID string, q querybuilder.QueryOptions) (*querybuilder.CursorResult[entities.Post], error) {
	q.Filters = withFilter(q.Filters, "status", string(enums.PostPublished))
	return querybuilder.BuildCursor[entities.Post](ctx, s.postRepo.Lister(tenantID), q, s.queryOpts)
}

func (s *postService) load(ctx context.Context, operation, tenantID, postID string) (*entities.Post, error) {
	p, err := s.postRepo.GetPostByID(ctx, tenantID, postID)
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			return nil, apperrors.ErrPostNotFound
		}
		s.logger.Error("查询帖子失败", zap.String("operation", operation), zap.String("postID", postID), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return p, nil
}

func (s *postService) publish(p *entities.Post) {
	s.bus.PublishPostPublished(events.PostPublished{
		TenantID: p.TenantID,
		PostID:   p.ID,
		AuthorID: p.AuthorID,
		Title:    p.Title,
	})
}

// withFilter 返回加上服务端强制条件的过滤器副本，不修改调用方的 map。
func withFilter(filters map[string]any, field string, value any) map[string]any {
	out := make(map[string]any, len(filters)+1)
	for k, v := range filters {
		out[k] = v
	}
	out[field] = value
	return out
}

// normalizeTags 去掉空白和重复的标签，保持原有顺序。
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
