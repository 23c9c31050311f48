package querybuilder

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/starter_hub/apperrors"
)

func TestBuildOperatorFilters(t *testing.T) {
	values := url.Values{}
	values.Set("filters", `{"view_count":{"gte":5,"lt":100},"tags":{"equals":"a,b"},"category":{"in":"tech,life"},"title":{"contains":"Go","mode":"insensitive"}}`)
	q, err := ParseQuery(values)
	require.NoError(t, err)

	d := &fakeDelegate{}
	_, err = Build[item](context.Background(), d, q, Options{})
	require.NoError(t, err)

	want := Where{OpAnd: []Where{
		{"category": Cond{OpIn: []any{"tech", "life"}}},
		{"tags": Cond{OpEquals: "a,b"}},
		{"title": Cond{OpContains: "Go", OpMode: "insensitive"}},
		{"view_count": Cond{OpGte: 5.0, OpLt: 100.0}},
	}}
	assert.Equal(t, want, d.findArgs[0].Where)
	assert.Equal(t, want, d.countArgs[0])
}

func TestBuildRejectsMalformedFilters(t *testing.T) {
	cases := []struct {
		name    string
		filters map[string]any
		param   string
	}{
		{"reserved AND", map[string]any{"AND": 1}, "filters.AND"},
		{"reserved OR", map[string]any{"OR": []any{"x"}}, "filters.OR"},
		{"unknown operator", map[string]any{"view_count": map[string]any{"between": 1}}, "filters.view_count.between"},
		{"empty operator object", map[string]any{"view_count": map[string]any{}}, "filters.view_count"},
		{"nested object value", map[string]any{"view_count": map[string]any{"gte": map[string]any{"x": 1}}}, "filters.view_count.gte"},
		{"in needs a list", map[string]any{"status": map[string]any{"in": 3.0}}, "filters.status.in"},
		{"in list of objects", map[string]any{"status": map[string]any{"in": []any{map[string]any{"x": 1}}}}, "filters.status.in"},
		{"array of objects", map[string]any{"status": []any{map[string]any{"x": 1}}}, "filters.status"},
		{"mode without contains", map[string]any{"title": map[string]any{"mode": "insensitive"}}, "filters.title.mode"},
		{"unknown mode", map[string]any{"title": map[string]any{"contains": "x", "mode": "fuzzy"}}, "filters.title.mode"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &fakeDelegate{}
			_, err := Build[item](context.Background(), d, QueryOptions{Filters: tc.filters}, Options{})
			appErr, ok := apperrors.As(err)
			require.True(t, ok, "应返回业务错误: %v", err)
			assert.Equal(t, http.StatusBadRequest, appErr.Status)
			assert.Equal(t, apperrors.ErrInvalidQuery.Key, appErr.Key)
			assert.Equal(t, tc.param, appErr.Args["param"])
			assert.Zero(t, d.calls())
		})
	}
}

func TestBuildReservedFilterNamesRejectedEvenWhenNotAllowed(t *testing.T) {
	d := &fakeDelegate{}
	_, err := Build[item](context.Background(), d, QueryOptions{Filters: map[string]any{"OR": 1}}, Options{AllowedFilterFields: []string{"status"}})
	_, ok := apperrors.As(err)
	assert.True(t, ok)
}

func TestBuildHugePageDoesNotOverflow(t *testing.T) {
	d := &fakeDelegate{total: 25}
	res, err := Build[item](context.Background(), d, QueryOptions{Page: math.MaxInt, Limit: 10}, Options{})
	require.NoError(t, err)

	skip := *d.findArgs[0].Skip
	assert.Positive(t, skip)
	assert.LessOrEqual(t, skip, math.MaxInt32)
	assert.Equal(t, maxPage(10), res.Metadata.CurrentPage)
	assert.False(t, res.Metadata.HasNextPage)
	assert.True(t, res.Metadata.HasPrevPage)
	assert.Empty(t, res.Items)
}

type distinctDelegate struct {
	fakeDelegate
	distinctTotal int64
	distinctArgs  []string
}

func (d *distinctDelegate) CountDistinct(_ context.Context, _ Where, distinct []string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.distinctArgs = distinct
	return d.distinctTotal, nil
}

func TestBuildCountsDistinctRows(t *testing.T) {
	d := &distinctDelegate{fakeDelegate: fakeDelegate{total: 50, rows: rows(3)}, distinctTotal: 3}

	res, err := Build[item](context.Background(), d, QueryOptions{Distinct: []string{"category"}}, Options{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Metadata.TotalItems)
	assert.Equal(t, 1, res.Metadata.TotalPages)
	assert.Equal(t, []string{"category"}, d.distinctArgs)
	assert.Empty(t, d.countArgs)

	res, err = Build[item](context.Background(), d, QueryOptions{}, Options{})
	require.NoError(t, err)
	assert.EqualValues(t, 50, res.Metadata.TotalItems)
}
