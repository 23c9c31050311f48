package querybuilder

// Metadata 分页元信息
type Metadata struct {
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	TotalPages   int   `json:"totalPages"`
	CurrentPage  int   `json:"currentPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

// PaginatedResult 偏移分页的统一结果
type PaginatedResult[T any] struct {
	Items    []T      `json:"items"`
	Metadata Metadata `json:"metadata"`
}

// CursorResult 游标分页结果，没有下一页时 NextCursor 为空。
type CursorResult[T any] struct {
	Data       []T    `json:"data"`
	NextCursor Cursor `json:"nextCursor,omitempty"`
}

func newPaginatedResult[T any](items []T, total int64, page, limit int) *PaginatedResult[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &PaginatedResult[T]{
		Items: items,
		Metadata: Metadata{
			TotalItems:   total,
			ItemsPerPage: limit,
			TotalPages:   totalPages,
			CurrentPage:  page,
			HasNextPage:  page < totalPages,
			HasPrevPage:  page > 1,
		},
	}
}

// MapItems 把分页结果中的实体转换成另一种类型（通常是 VO），元信息保持不变。
func MapItems[T, R any](in *PaginatedResult[T], fn func(T) R) *PaginatedResult[R] {
	out := &PaginatedResult[R]{Items: make([]R, 0, len(in.Items)), Metadata: in.Metadata}
	for _, item := range in.Items {
		out.Items = append(out.Items, fn(item))
	}
	return out
}
