package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/middleware"
	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/models/vo"
	"github.com/Xushengqwer/starter_hub/response"
	"github.com/Xushengqwer/starter_hub/service/post"
)

// PostController 帖子接口。列表和详情对匿名用户开放（只能看到已发布的帖子）。
type PostController struct {
	postService post.PostService
	normalizer  *response.Normalizer
	logger      *zap.Logger
}

func NewPostController(postService post.PostService, normalizer *response.Normalizer, logger *zap.Logger) *PostController {
	return &PostController{postService: postService, normalizer: normalizer, logger: logger}
}

// CreatePostHandler 创建帖子
// @Summary 创建帖子
// @Description publish 为 true 时直接发布，否则保存为草稿。
// @Tags 帖子
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreatePostDTO true "帖子内容"
// @Success 201 {object} docs.SwaggerPostResponse "创建成功"
// @Failure 400 {object} docs.SwaggerValidationErrorResponse "参数错误"
// @Router /api/v1/starter-hub/posts [post]
func (ctrl *PostController) CreatePostHandler(c *gin.Context) (any, error) {
	actor, err := actorOf(c)
	if err != nil {
		return nil, err
	}
	var data dto.CreatePostDTO
	if err := bindJSON(c, &data); err != nil {
		return nil, err
	}
	return ctrl.postService.Create(c.Request.Context(), middleware.TenantFrom(c), actor, data)
}

// GetPostHandler 帖子详情
// @Summary 获取帖子
// @Description 草稿只有作者和管理员可见，其他人得到 404。
// @Tags 帖子
// @Produce json
// @Param X-Tenant-ID header string false "租户 ID（未登录时必填）"
// @Param postID path string true "帖子 ID"
// @Success 200 {object} docs.SwaggerPostResponse "成功"
// @Failure 404 {object} docs.SwaggerErrorResponse "帖子不存在"
// @Router /api/v1/starter-hub/posts/{postID} [get]
func (ctrl *PostController) GetPostHandler(c *gin.Context) (any, error) {
	return ctrl.postService.Get(c.Request.Context(), middleware.TenantFrom(c), optionalActor(c), c.Param("postID"))
}

// UpdatePostHandler 更新帖子
// @Summary 更新帖子
// @Tags 帖子
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param postID path string true "帖子 ID"
// @Param body body dto.UpdatePostDTO true "要修改的字段"
// @Success 200 {object} docs.SwaggerPostResponse "更新成功"
// @Failure 403 {object} docs.SwaggerErrorResponse "只能修改自己的帖子"
// @Failure 404 {object} docs.SwaggerErrorResponse "帖子不存在"
// @Router /api/v1/starter-hub/posts/{postID} [put]
func (ctrl *PostController) UpdatePostHandler(c *gin.Context) (any, error) {
	actor, err := actorOf(c)
	if err != nil {
		return nil, err
	}
	var data dto.UpdatePostDTO
	if err := bindJSON(c, &data); err != nil {
		return nil, err
	}
	return ctrl.postService.Update(c.Request.Context(), middleware.TenantFrom(c), actor, c.Param("postID"), data)
}

// DeletePostHandler 删除帖子
// @Summary 删除帖子
// @Tags 帖子
// @Produce json
// @Security BearerAuth
// @Param postID path string true "帖子 ID"
// @Success 200 {object} docs.SwaggerEmptyResponse "已删除"
// @Failure 403 {object} docs.SwaggerErrorResponse "只能删除自己的帖子"
// @Failure 404 {object} docs.SwaggerErrorResponse "帖子不存在"
// @Router /api/v1/starter-hub/posts/{postID} [delete]
func (ctrl *PostController) DeletePostHandler(c *gin.Context) (any, error) {
	actor, err := actorOf(c)
	if err != nil {
		return nil, err
	}
	return nil, ctrl.postService.Delete(c.Request.Context(), middleware.TenantFrom(c), actor, c.Param("postID"))
}

// ListPostsHandler 帖子列表
// @Summary 分页查询帖子
// @Description 过滤字段 status/category/tags/author_id，搜索字段 title/content，排序字段 created_at/updated_at/title/view_count/published_at。非管理员只能看到已发布的帖子。
// @Tags 帖子
// @Produce json
// @Param X-Tenant-ID header string false "租户 ID（未登录时必填）"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页条数" default(10)
// @Param searchQuery query string false "搜索关键字"
// @Param searchFields query string false "逗号分隔的搜索字段"
// @Param sortBy query string false "排序字段"
// @Param sortOrder query string false "排序方向" Enums(asc, desc)
// @Param filters query string false "JSON 过滤条件，例如 {\"tags\":\"go,db\"}"
// @Param include query string false "JSON 关联，例如 {\"author\":{\"include\":{\"profile\":true}}}"
// @Success 200 {object} docs.SwaggerPostPageResponse "成功"
// @Failure 400 {object} docs.SwaggerValidationErrorResponse "查询参数错误"
// @Router /api/v1/starter-hub/posts [get]
func (ctrl *PostController) ListPostsHandler(c *gin.Context) (any, error) {
	q, err := queryOf(c)
	if err != nil {
		return nil, err
	}
	return ctrl.postService.List(c.Request.Context(), middleware.TenantFrom(c), optionalActor(c), q)
}

// FeedHandler 帖子信息流
// @Summary 游标分页的已发布帖子
// @Description 首次请求不带 cursor；之后把响应中的 nextCursor 以 JSON 形式传回，直到 nextCursor 为空。
// @Tags 帖子
// @Produce json
// @Param X-Tenant-ID header string true "租户 ID"
// @Param limit query int false "每页条数" default(10)
// @Param cursor query string false "JSON 游标，例如 {\"id\":\"...\"}"
// @Success 200 {object} docs.SwaggerPostFeedResponse "成功"
// @Router /api/v1/starter-hub/posts/feed [get]
func (ctrl *PostController) FeedHandler(c *gin.Context) (any, error) {
	q, err := queryOf(c)
	if err != nil {
		return nil, err
	}
	return ctrl.postService.Feed(c.Request.Context(), middleware.TenantFrom(c), q)
}

// ListMyPostsHandler 我的帖子
// @Summary 我的帖子（含草稿）
// @Tags 帖子
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页条数" default(10)
// @Success 200 {object} docs.SwaggerPostPageResponse "成功"
// @Router /api/v1/starter-hub/me/posts [get]
func (ctrl *PostController) ListMyPostsHandler(c *gin.Context) (any, error) {
	claims, err := claimsOf(c)
	if err != nil {
		return nil, err
	}
	q, err := queryOf(c)
	if err != nil {
		return nil, err
	}
	return ctrl.postService.ListMine(c.Request.Context(), middleware.TenantFrom(c), claims.UserID, q)
}

// RegisterRoutes 注册帖子路由。
func (ctrl *PostController) RegisterRoutes(group *gin.RouterGroup, guards Guards) {
	postShape := func() any { return &vo.PostVO{} }
	pageShape := func() any { return &vo.PostPageVO{} }

	public := group.Group("/posts", guards.OptionalAuth, guards.Tenant)
	{
		public.GET("", ctrl.normalizer.Handle(response.Route{Shape: pageShape}, ctrl.ListPostsHandler))
		public.GET("/feed", ctrl.normalizer.Handle(response.Route{
			Shape: func() any { return &vo.PostFeedVO{} },
		}, ctrl.FeedHandler))
		public.GET("/:postID", ctrl.normalizer.Handle(response.Route{Shape: postShape}, ctrl.GetPostHandler))
	}

	authed := group.Group("/posts", guards.Auth, guards.Tenant)
	{
		authed.POST("", ctrl.normalizer.Handle(response.Route{
			Status:     http.StatusCreated,
			MessageKey: "posts.created",
			Shape:      postShape,
		}, ctrl.CreatePostHandler))
		authed.PUT("/:postID", ctrl.normalizer.Handle(response.Route{
			MessageKey: "posts.updated",
			Shape:      postShape,
		}, ctrl.UpdatePostHandler))
		authed.DELETE("/:postID", ctrl.normalizer.Handle(response.Route{MessageKey: "posts.deleted"}, ctrl.DeletePostHandler))
	}

	group.GET("/me/posts", guards.Auth, guards.Tenant,
		ctrl.normalizer.Handle(response.Route{Shape: pageShape}, ctrl.ListMyPostsHandler))
}
