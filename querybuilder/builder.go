// Package querybuilder 把客户端提交的分页/搜索/过滤/排序参数翻译成与存储无关的查询参数，
// 交给数据访问委托（Delegate）执行 count + findMany，并组装统一的分页结果。
//
// 该包本身不持有任何状态：每次调用都会重新计算 where/orderBy/分页子句，
// 只依赖调用方传入的只读 Options。
package querybuilder

import (
	"context"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Xushengqwer/starter_hub/apperrors"
)

// FindArgs 是交给委托 FindMany 的完整查询参数，空子句保持零值（nil）。
type FindArgs struct {
	Where    Where
	OrderBy  []OrderBy
	Select   map[string]bool
	Include  map[string]any
	Skip     *int
	Take     *int
	Cursor   Cursor
	Distinct []string
}

// Delegate 是查询构建器依赖的最小数据访问能力。
type Delegate[T any] interface {
	Count(ctx context.Context, where Where) (int64, error)
	FindMany(ctx context.Context, args FindArgs) ([]T, error)
}

// DistinctCounter 是委托的可选能力：按 distinct 字段去重后计数。
// 请求带 distinct 时 Build 优先使用它，使 totalItems 与返回的去重行一致。
type DistinctCounter interface {
	CountDistinct(ctx context.Context, where Where, distinct []string) (int64, error)
}

// CursorDelegate 在 Delegate 的基础上提供从一行记录中提取游标的能力。
type CursorDelegate[T any] interface {
	Delegate[T]
	CursorOf(item T) Cursor
}

// Build 执行偏移分页查询：count 与 findMany 并发执行，任一失败则整体失败，不做重试。
// 构建器自身只产生 400 类错误（非法排序字段/方向、非法过滤操作符），其余错误原样向上返回。
func Build[T any](ctx context.Context, d Delegate[T], q QueryOptions, opts Options) (*PaginatedResult[T], error) {
	opts = opts.withDefaults()

	args, err := prepare(q, opts)
	if err != nil {
		return nil, err
	}
	page, limit := pagination(q, opts)
	if page > maxPage(limit) {
		page = maxPage(limit)
	}
	skip := (page - 1) * limit
	args.Skip = &skip
	args.Take = &limit

	var (
		total int64
		items []T
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if dc, ok := d.(DistinctCounter); ok && len(args.Distinct) > 0 {
			total, err = dc.CountDistinct(gctx, args.Where, args.Distinct)
			return err
		}
		total, err = d.Count(gctx, args.Where)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = d.FindMany(gctx, args)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return newPaginatedResult(items, total, page, limit), nil
}

// BuildCursor 执行游标分页查询：多取一行（limit+1）来判断是否还有下一页，
// 有下一页时裁剪到 limit 行，并用最后一行生成 NextCursor。
func BuildCursor[T any](ctx context.Context, d CursorDelegate[T], q QueryOptions, opts Options) (*CursorResult[T], error) {
	opts = opts.withDefaults()

	args, err := prepare(q, opts)
	if err != nil {
		return nil, err
	}
	_, limit := pagination(q, opts)
	take := limit + 1
	args.Take = &take
	if len(q.Cursor) > 0 {
		args.Cursor = q.Cursor
	}

	rows, err := d.FindMany(ctx, args)
	if err != nil {
		return nil, err
	}

	result := &CursorResult[T]{Data: rows}
	if len(rows) > limit {
		result.Data = rows[:limit]
		result.NextCursor = d.CursorOf(rows[limit-1])
	}
	if result.Data == nil {
		result.Data = []T{}
	}
	return result, nil
}

// prepare 计算 where、排序与投影子句，空子句保持 nil。
func prepare(q QueryOptions, opts Options) (FindArgs, error) {
	orderBy, err := buildOrderBy(q, opts)
	if err != nil {
		return FindArgs{}, err
	}
	where, err := buildWhere(q, opts)
	if err != nil {
		return FindArgs{}, err
	}

	args := FindArgs{Where: where, OrderBy: orderBy}
	if len(q.Select) > 0 {
		args.Select = q.Select
	}
	if len(q.Include) > 0 {
		args.Include = q.Include
	}
	if len(q.Distinct) > 0 {
		args.Distinct = q.Distinct
	}
	return args, nil
}

// buildOrderBy 显式 orderBy 优先；否则使用 sortBy/sortOrder；都没有时按默认字段倒序。
// 不在允许列表中的字段直接拒绝，而不是静默忽略。
func buildOrderBy(q QueryOptions, opts Options) ([]OrderBy, error) {
	if len(q.OrderBy) > 0 {
		out := make([]OrderBy, 0, len(q.OrderBy))
		for _, ob := range q.OrderBy {
			normalized, err := validateSort(ob.Field, ob.Order, opts)
			if err != nil {
				return nil, err
			}
			out = append(out, normalized)
		}
		return out, nil
	}

	if q.SortBy != "" {
		order := q.SortOrder
		if order == "" {
			order = Desc
		}
		normalized, err := validateSort(q.SortBy, order, opts)
		if err != nil {
			return nil, err
		}
		return []OrderBy{normalized}, nil
	}

	return []OrderBy{{Field: opts.DefaultSortField, Order: Desc}}, nil
}

func validateSort(field string, order SortOrder, opts Options) (OrderBy, error) {
	if field == "" || !allowed(opts.AllowedSortFields, field) {
		return OrderBy{}, apperrors.ErrInvalidSortField.WithArgs(map[string]any{"field": field})
	}
	switch SortOrder(strings.ToLower(string(order))) {
	case Asc:
		return OrderBy{Field: field, Order: Asc}, nil
	case Desc:
		return OrderBy{Field: field, Order: Desc}, nil
	}
	return OrderBy{}, apperrors.ErrInvalidSortOrder.WithArgs(map[string]any{"order": string(order)})
}

// maxPage 是 (page-1)*limit 不溢出 int32 范围时允许的最大页码，
// 超出的页码会被截断到这里，结果只是一个空页。
func maxPage(limit int) int {
	return math.MaxInt32/limit + 1
}

// pagination page 至少为 1；limit 缺省取 DefaultLimit，超过 MaxLimit 时截断而不是报错。
func pagination(q QueryOptions, opts Options) (page, limit int) {
	page = q.Page
	if page < 1 {
		page = 1
	}
	limit = q.Limit
	if limit < 1 {
		limit = opts.DefaultLimit
	}
	if limit > opts.MaxLimit {
		limit = opts.MaxLimit
	}
	return page, limit
}
