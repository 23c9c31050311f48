package post

import (
	"context"
	"sync"
	"testing"

	commonenums "github.com/Xushengqwer/go-common/models/enums"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/apperrors"
	"github.com/Xushengqwer/starter_hub/events"
	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/models/enums"
	"github.com/Xushengqwer/starter_hub/querybuilder"
	"github.com/Xushengqwer/starter_hub/repository/mysql"
	"github.com/Xushengqwer/starter_hub/repository/mysql/mysqltest"
	"github.com/Xushengqwer/starter_hub/utils"
)

type fixture struct {
	svc    PostService
	bus    *events.Bus
	tenant string
	author Actor
	other  Actor
	admin  Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := mysqltest.NewDB(t)
	bus := events.NewBus(zap.NewNop())
	return &fixture{
		svc:    NewPostService(mysql.NewPostRepository(db), db, bus, querybuilder.Options{}, zap.NewNop()),
		bus:    bus,
		tenant: uuid.NewString(),
		author: Actor{UserID: uuid.NewString(), Role: commonenums.RoleUser},
		other:  Actor{UserID: uuid.NewString(), Role: commonenums.RoleUser},
		admin:  Actor{UserID: uuid.NewString(), Role: commonenums.RoleAdmin},
	}
}

func TestDraftVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft, err := f.svc.Create(ctx, f.tenant, f.author, dto.CreatePostDTO{Title: "draft", Tags: []string{"go", " go ", ""}})
	require.NoError(t, err)
	assert.Equal(t, enums.PostDraft, draft.Status)
	require.Len(t, draft.Tags, 1)

	_, err = f.svc.Get(ctx, f.tenant, nil, draft.ID)
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
	_, err = f.svc.Get(ctx, f.tenant, &f.other, draft.ID)
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)

	got, err := f.svc.Get(ctx, f.tenant, &f.author, draft.ID)
	require.NoError(t, err)
	assert.Zero(t, got.ViewCount)

	_, err = f.svc.Get(ctx, uuid.NewString(), &f.author, draft.ID)
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
}

func TestPublishIncrementsViewsAndEmitsEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var (
		mu        sync.Mutex
		published []string
	)
	require.NoError(t, f.bus.OnPostPublished(func(evt events.PostPublished) {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, evt.PostID)
	}))

	p, err := f.svc.Create(ctx, f.tenant, f.author, dto.CreatePostDTO{Title: "draft"})
	require.NoError(t, err)

	status := enums.PostPublished
	tags := []string{"news"}
	updated, err := f.svc.Update(ctx, f.tenant, f.author, p.ID, dto.UpdatePostDTO{Status: &status, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, enums.PostPublished, updated.Status)
	require.NotNil(t, updated.PublishedAt)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "news", updated.Tags[0].Tag)

	got, err := f.svc.Get(ctx, f.tenant, nil, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.ViewCount)

	f.bus.Wait()
	mu.Lock()
	assert.Equal(t, []string{p.ID}, published)
	mu.Unlock()
}

func TestOnlyAuthorOrAdminCanModify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx, f.tenant, f.author, dto.CreatePostDTO{Title: "mine", Publish: true})
	require.NoError(t, err)

	title := "hijacked"
	_, err = f.svc.Update(ctx, f.tenant, f.other, p.ID, dto.UpdatePostDTO{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrPostForbidden)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.tenant, f.other, p.ID), apperrors.ErrPostForbidden)

	title = "moderated"
	updated, err := f.svc.Update(ctx, f.tenant, f.admin, p.ID, dto.UpdatePostDTO{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "moderated", updated.Title)

	require.NoError(t, f.svc.Delete(ctx, f.tenant, f.author, p.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, f.tenant, f.author, p.ID), apperrors.ErrPostNotFound)
}

func TestCreateRejectsForeignCoverKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.tenant, f.author, dto.CreatePostDTO{Title: "x", CoverKey: utils.ObjectKeyPrefix(f.tenant, f.other.UserID, "post") + "a.png"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	p, err := f.svc.Create(ctx, f.tenant, f.author, dto.CreatePostDTO{Title: "x", CoverKey: utils.ObjectKeyPrefix(f.tenant, f.author.UserID, "post") + "a.png"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.CoverKey)
}

func TestListAndFeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.svc.Create(ctx, f.tenant, f.author, dto.CreatePostDTO{Title: gofakeit.Sentence(3), Category: "tech", Tags: []string{"go"}, Publish: true})
		require.NoError(t, err)
	}
	_, err := f.svc.Create(ctx, f.tenant, f.author, dto.CreatePostDTO{Title: "secret draft", Category: "tech"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, uuid.NewString(), f.other, dto.CreatePostDTO{Title: "elsewhere", Publish: true})
	require.NoError(t, err)

	// 客户端传入的 status 过滤会被覆盖
	page, err := f.svc.List(ctx, f.tenant, nil, querybuilder.QueryOptions{Filters: map[string]any{"status": "draft", "tags": "go"}, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Metadata.TotalItems)
	assert.Equal(t, 3, page.Metadata.TotalPages)

	page, err = f.svc.List(ctx, f.tenant, &f.admin, querybuilder.QueryOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 6, page.Metadata.TotalItems)

	mine, err := f.svc.ListMine(ctx, f.tenant, f.author.UserID, querybuilder.QueryOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 6, mine.Metadata.TotalItems)

	_, err = f.svc.List(ctx, f.tenant, nil, querybuilder.QueryOptions{SortBy: "author_id"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrInvalidSortField.Key, appErr.Key)

	seen := map[string]bool{}
	q := querybuilder.QueryOptions{Limit: 2}
	for pages := 0; pages < 5; pages++ {
		feed, err := f.svc.Feed(ctx, f.tenant, q)
		require.NoError(t, err)
		for _, p := range feed.Data {
			assert.False(t, seen[p.ID], "游标分页不应返回重复数据")
			seen[p.ID] = true
		}
		if feed.NextCursor == nil {
			break
		}
		q.Cursor = feed.NextCursor
	}
	assert.Len(t, seen, 5)
}

func TestSearchCannotBypassForcedFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.tenant, f.author, dto.CreatePostDTO{Title: "secret draft", Content: "hidden"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.tenant, f.author, dto.CreatePostDTO{Title: "public post", Content: "hello", Publish: true})
	require.NoError(t, err)
	mine, err := f.svc.Create(ctx, f.tenant, f.other, dto.CreatePostDTO{Title: "secret plans", Content: "mine"})
	require.NoError(t, err)

	search := querybuilder.QueryOptions{SearchQuery: "secret", SearchFields: []string{"title"}}

	page, err := f.svc.List(ctx, f.tenant, nil, search)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Metadata.TotalItems)

	page, err = f.svc.ListMine(ctx, f.tenant, f.other.UserID, search)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, mine.ID, page.Items[0].ID)

	feed, err := f.svc.Feed(ctx, f.tenant, querybuilder.QueryOptions{SearchQuery: "post", SearchFields: []string{"title"}})
	require.NoError(t, err)
	require.Len(t, feed.Data, 1)
	assert.Equal(t, "public post", feed.Data[0].Title)
}

func TestPublishedCounter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := prometheus.NewRegistry()

	counter, err := SubscribePublishedCounter(f.bus, reg)
	require.NoError(t, err)
	_, err = SubscribePublishedCounter(f.bus, reg)
	assert.Error(t, err, "重复注册同名指标应失败")

	_, err = f.svc.Create(ctx, f.tenant, f.author, dto.CreatePostDTO{Title: gofakeit.Sentence(3), Publish: true})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.tenant, f.author, dto.CreatePostDTO{Title: gofakeit.Sentence(3)})
	require.NoError(t, err)

	f.bus.Wait()
	assert.Equal(t, 1.0, testutil.ToFloat64(counter))
}
