package querybuilder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/starter_hub/apperrors"
)

type item struct {
	ID int `json:"id"`
}

type fakeDelegate struct {
	mu        sync.Mutex
	total     int64
	rows      []item
	countErr  error
	findErr   error
	countArgs []Where
	findArgs  []FindArgs
}

func (f *fakeDelegate) Count(_ context.Context, where Where) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countArgs = append(f.countArgs, where)
	return f.total, f.countErr
}

func (f *fakeDelegate) FindMany(_ context.Context, args FindArgs) ([]item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findArgs = append(f.findArgs, args)
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.rows, nil
}

func (f *fakeDelegate) CursorOf(it item) Cursor { return Cursor{"id": it.ID} }

func (f *fakeDelegate) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.countArgs) + len(f.findArgs)
}

func rows(n int) []item {
	out := make([]item, n)
	for i := range out {
		out[i] = item{ID: i + 1}
	}
	return out
}

func TestBuildSecondPage(t *testing.T) {
	d := &fakeDelegate{total: 25, rows: rows(10)}

	res, err := Build[item](context.Background(), d, QueryOptions{Page: 2, Limit: 10}, Options{})
	require.NoError(t, err)

	assert.Len(t, res.Items, 10)
	assert.Equal(t, Metadata{
		TotalItems:   25,
		ItemsPerPage: 10,
		TotalPages:   3,
		CurrentPage:  2,
		HasNextPage:  true,
		HasPrevPage:  true,
	}, res.Metadata)

	require.Len(t, d.findArgs, 1)
	args := d.findArgs[0]
	assert.Equal(t, 10, *args.Skip)
	assert.Equal(t, 10, *args.Take)
	assert.Nil(t, args.Where)
	assert.Nil(t, args.Select)
	assert.Nil(t, args.Include)
	assert.Nil(t, args.Distinct)
	assert.Equal(t, []OrderBy{{Field: "created_at", Order: Desc}}, args.OrderBy)
}

func TestBuildCommaFilterBecomesIn(t *testing.T) {
	d := &fakeDelegate{}

	_, err := Build[item](context.Background(), d, QueryOptions{Filters: map[string]any{"tags": "a,b,c"}}, Options{})
	require.NoError(t, err)

	want := Where{OpAnd: []Where{{"tags": Cond{OpIn: []any{"a", "b", "c"}}}}}
	assert.Equal(t, want, d.countArgs[0])
	assert.Equal(t, want, d.findArgs[0].Where)
}

func TestBuildPaginationClamping(t *testing.T) {
	cases := []struct {
		name     string
		page     int
		limit    int
		opts     Options
		wantPage int
		wantSkip int
		wantTake int
	}{
		{"defaults", 0, 0, Options{}, 1, 0, 10},
		{"negative page", -3, 5, Options{}, 1, 0, 5},
		{"limit over max", 3, 500, Options{MaxLimit: 50}, 3, 100, 50},
		{"custom default", 2, 0, Options{DefaultLimit: 20}, 2, 20, 20},
		{"default above max", 1, 0, Options{DefaultLimit: 80, MaxLimit: 30}, 1, 0, 30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &fakeDelegate{total: 1000}
			res, err := Build[item](context.Background(), d, QueryOptions{Page: tc.page, Limit: tc.limit}, tc.opts)
			require.NoError(t, err)
			assert.Equal(t, tc.wantPage, res.Metadata.CurrentPage)
			assert.Equal(t, tc.wantTake, res.Metadata.ItemsPerPage)
			assert.Equal(t, tc.wantSkip, *d.findArgs[0].Skip)
			assert.Equal(t, tc.wantTake, *d.findArgs[0].Take)
		})
	}
}

func TestBuildMetadataRoundTrip(t *testing.T) {
	for _, total := range []int64{0, 1, 9, 10, 11, 99, 100, 101} {
		for _, page := range []int{1, 2, 5, 11} {
			d := &fakeDelegate{total: total}
			res, err := Build[item](context.Background(), d, QueryOptions{Page: page, Limit: 10}, Options{})
			require.NoError(t, err)

			m := res.Metadata
			wantPages := int((total + 9) / 10)
			assert.Equal(t, wantPages, m.TotalPages, "total=%d", total)
			assert.Equal(t, m.CurrentPage < m.TotalPages, m.HasNextPage)
			assert.Equal(t, m.CurrentPage > 1, m.HasPrevPage)
		}
	}
}

func TestBuildRejectsSortFieldBeforeQuerying(t *testing.T) {
	opts := Options{AllowedSortFields: []string{"created_at", "title"}}

	cases := []QueryOptions{
		{SortBy: "password"},
		{OrderBy: OrderByList{{Field: "title", Order: Asc}, {Field: "secret", Order: Desc}}},
	}
	for _, q := range cases {
		d := &fakeDelegate{}
		_, err := Build[item](context.Background(), d, q, opts)

		ae, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, ae.Status)
		assert.Equal(t, "query.invalidSortField", ae.Key)
		assert.Zero(t, d.calls())
	}
}

func TestBuildRejectsSortOrder(t *testing.T) {
	d := &fakeDelegate{}
	_, err := Build[item](context.Background(), d, QueryOptions{SortBy: "title", SortOrder: "sideways"}, Options{})

	ae, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "query.invalidSortOrder", ae.Key)
	assert.Zero(t, d.calls())
}

func TestBuildSortPrecedence(t *testing.T) {
	d := &fakeDelegate{}
	q := QueryOptions{
		SortBy:    "title",
		SortOrder: Asc,
		OrderBy:   OrderByList{{Field: "view_count", Order: "DESC"}},
	}
	_, err := Build[item](context.Background(), d, q, Options{})
	require.NoError(t, err)
	assert.Equal(t, []OrderBy{{Field: "view_count", Order: Desc}}, d.findArgs[0].OrderBy)

	d = &fakeDelegate{}
	_, err = Build[item](context.Background(), d, QueryOptions{SortBy: "title"}, Options{DefaultSortField: "id"})
	require.NoError(t, err)
	assert.Equal(t, []OrderBy{{Field: "title", Order: Desc}}, d.findArgs[0].OrderBy)

	d = &fakeDelegate{}
	_, err = Build[item](context.Background(), d, QueryOptions{}, Options{DefaultSortField: "id"})
	require.NoError(t, err)
	assert.Equal(t, []OrderBy{{Field: "id", Order: Desc}}, d.findArgs[0].OrderBy)
}

func TestBuildWhereRespectsAllowLists(t *testing.T) {
	from := "2024-01-01"
	minViews := 10.0
	q := QueryOptions{
		Filters:      map[string]any{"status": "published", "password_hash": "x", "empty": "", "missing": nil},
		SearchQuery:  "golang",
		SearchFields: []string{"title", "password_hash", "content"},
		SearchMode:   SearchInsensitive,
		DateFilters:  []DateFilter{{Field: "created_at", From: &from}, {Field: "deleted_at", From: &from}},
		RangeFilters: []RangeFilter{{Field: "view_count", Min: &minViews}, {Field: "score"}},
		EnumFilters:  []EnumFilter{{Field: "category", Values: []any{"tech", "life"}}, {Field: "role", Values: []any{"admin"}}},
	}
	opts := Options{
		AllowedFilterFields: []string{"status", "created_at", "view_count", "category", "score"},
		AllowedSearchFields: []string{"title", "content"},
	}

	d := &fakeDelegate{}
	_, err := Build[item](context.Background(), d, q, opts)
	require.NoError(t, err)

	fromTime, err := ParseDate(from)
	require.NoError(t, err)

	want := Where{OpAnd: []Where{
		{"status": "published"},
		{OpOr: []Where{
			{"title": Cond{OpContains: "golang", OpMode: "insensitive"}},
			{"content": Cond{OpContains: "golang", OpMode: "insensitive"}},
		}},
		{"created_at": Cond{OpGte: fromTime}},
		{"view_count": Cond{OpGte: 10.0}},
		{"category": Cond{OpIn: []any{"tech", "life"}}},
	}}
	assert.Equal(t, want, d.findArgs[0].Where)

	raw, err := json.Marshal(d.findArgs[0].Where)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password_hash")
	assert.NotContains(t, string(raw), "deleted_at")
	assert.NotContains(t, string(raw), "role")
}

func TestBuildSearchWithNoAllowedFieldsContributesNothing(t *testing.T) {
	d := &fakeDelegate{}
	q := QueryOptions{SearchQuery: "x", SearchFields: []string{"secret"}}
	_, err := Build[item](context.Background(), d, q, Options{AllowedSearchFields: []string{"title"}})
	require.NoError(t, err)
	assert.Nil(t, d.findArgs[0].Where)
}

func TestBuildSearchDefaultModeOmitsMode(t *testing.T) {
	d := &fakeDelegate{}
	q := QueryOptions{SearchQuery: "x", SearchFields: []string{"title"}}
	_, err := Build[item](context.Background(), d, q, Options{})
	require.NoError(t, err)
	assert.Equal(t, Where{OpAnd: []Where{{OpOr: []Where{{"title": Cond{OpContains: "x"}}}}}}, d.findArgs[0].Where)
}

func TestBuildProjectionPassThrough(t *testing.T) {
	d := &fakeDelegate{}
	q := QueryOptions{
		Select:   map[string]bool{"id": true, "title": true},
		Include:  map[string]any{"author": map[string]any{"profile": true}},
		Distinct: []string{"category"},
	}
	_, err := Build[item](context.Background(), d, q, Options{})
	require.NoError(t, err)

	args := d.findArgs[0]
	assert.Equal(t, q.Select, args.Select)
	assert.Equal(t, q.Include, args.Include)
	assert.Equal(t, []string{"category"}, args.Distinct)
}

func TestBuildIsIdempotent(t *testing.T) {
	d := &fakeDelegate{total: 42, rows: rows(5)}
	q := QueryOptions{
		Page:    3,
		Limit:   5,
		Filters: map[string]any{"b": "2", "a": "1,2", "c": []any{"x"}},
	}

	first, err := Build[item](context.Background(), d, q, Options{})
	require.NoError(t, err)
	second, err := Build[item](context.Background(), d, q, Options{})
	require.NoError(t, err)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, d.findArgs[0], d.findArgs[1])
}

func TestBuildPropagatesDelegateErrors(t *testing.T) {
	boom := errors.New("connection refused")

	_, err := Build[item](context.Background(), &fakeDelegate{countErr: boom}, QueryOptions{}, Options{})
	assert.ErrorIs(t, err, boom)

	_, err = Build[item](context.Background(), &fakeDelegate{findErr: boom}, QueryOptions{}, Options{})
	assert.ErrorIs(t, err, boom)
}

func TestBuildPropagatesDateParseErrors(t *testing.T) {
	bad := "yesterday"
	d := &fakeDelegate{}
	_, err := Build[item](context.Background(), d, QueryOptions{DateFilters: []DateFilter{{Field: "created_at", To: &bad}}}, Options{})
	require.Error(t, err)
	_, isAppErr := apperrors.As(err)
	assert.False(t, isAppErr)
	assert.Zero(t, d.calls())
}

func TestBuildItemsNeverNull(t *testing.T) {
	res, err := Build[item](context.Background(), &fakeDelegate{}, QueryOptions{}, Options{})
	require.NoError(t, err)
	raw, _ := json.Marshal(res)
	assert.Contains(t, string(raw), `"items":[]`)
}

func TestBuildCursor(t *testing.T) {
	t.Run("more rows than limit", func(t *testing.T) {
		d := &fakeDelegate{rows: rows(6)}
		res, err := BuildCursor[item](context.Background(), d, QueryOptions{Limit: 5, Cursor: Cursor{"id": 100}}, Options{})
		require.NoError(t, err)

		assert.Len(t, res.Data, 5)
		assert.Equal(t, Cursor{"id": 5}, res.NextCursor)
		assert.Equal(t, 6, *d.findArgs[0].Take)
		assert.Nil(t, d.findArgs[0].Skip)
		assert.Equal(t, Cursor{"id": 100}, d.findArgs[0].Cursor)
		assert.Empty(t, d.countArgs)
	})

	t.Run("last page", func(t *testing.T) {
		d := &fakeDelegate{rows: rows(5)}
		res, err := BuildCursor[item](context.Background(), d, QueryOptions{Limit: 5}, Options{})
		require.NoError(t, err)

		assert.Equal(t, rows(5), res.Data)
		assert.Nil(t, res.NextCursor)
		assert.Nil(t, d.findArgs[0].Cursor)

		raw, _ := json.Marshal(res)
		assert.NotContains(t, string(raw), "nextCursor")
	})

	t.Run("limit clamped", func(t *testing.T) {
		d := &fakeDelegate{}
		_, err := BuildCursor[item](context.Background(), d, QueryOptions{Limit: 1000}, Options{MaxLimit: 20})
		require.NoError(t, err)
		assert.Equal(t, 21, *d.findArgs[0].Take)
	})

	t.Run("sort rejection", func(t *testing.T) {
		d := &fakeDelegate{}
		_, err := BuildCursor[item](context.Background(), d, QueryOptions{SortBy: "x"}, Options{AllowedSortFields: []string{"id"}})
		require.Error(t, err)
		assert.Zero(t, d.calls())
	})
}

func TestOptionsMerge(t *testing.T) {
	base := Options{DefaultLimit: 10, MaxLimit: 100, AllowedSortFields: []string{"created_at"}}
	merged := base.Merge(Options{MaxLimit: 50, AllowedFilterFields: []string{"status"}})

	assert.Equal(t, 10, merged.DefaultLimit)
	assert.Equal(t, 50, merged.MaxLimit)
	assert.Equal(t, []string{"created_at"}, merged.AllowedSortFields)
	assert.Equal(t, []string{"status"}, merged.AllowedFilterFields)
}
