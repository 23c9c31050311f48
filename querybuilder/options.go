package querybuilder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SortOrder 排序方向
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// SearchMode 搜索的大小写敏感模式
type SearchMode string

const (
	SearchDefault     SearchMode = "default"
	SearchInsensitive SearchMode = "insensitive"
)

// DateFilter 日期区间过滤，From/To 为 RFC3339 或 YYYY-MM-DD 字符串，只生成提供了的边界。
type DateFilter struct {
	Field string  `json:"field"`
	From  *string `json:"from,omitempty"`
	To    *string `json:"to,omitempty"`
}

// RangeFilter 数值区间过滤。
type RangeFilter struct {
	Field string   `json:"field"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
}

// EnumFilter 枚举值过滤，翻译为 "field in values"。
type EnumFilter struct {
	Field  string `json:"field"`
	Values []any  `json:"values"`
}

// OrderBy 单个排序字段。
type OrderBy struct {
	Field string    `json:"field"`
	Order SortOrder `json:"order"`
}

// OrderByList 保持顺序的排序列表。
// JSON 既接受对象形式 {"created_at":"desc","title":"asc"}（按键出现顺序），
// 也接受数组形式 [{"created_at":"desc"}, {"field":"title","order":"asc"}]。
type OrderByList []OrderBy

func (l *OrderByList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*l = nil
		return nil
	}
	switch data[0] {
	case '{':
		list, err := decodeOrderedObject(data)
		if err != nil {
			return err
		}
		*l = list
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make(OrderByList, 0, len(raw))
		for _, item := range raw {
			var explicit OrderBy
			if err := json.Unmarshal(item, &explicit); err == nil && explicit.Field != "" {
				out = append(out, explicit)
				continue
			}
			list, err := decodeOrderedObject(item)
			if err != nil {
				return err
			}
			out = append(out, list...)
		}
		*l = out
		return nil
	}
	return fmt.Errorf("orderBy 必须是对象或数组")
}

// decodeOrderedObject 按键出现顺序解析 {"field":"asc|desc", ...}。
func decodeOrderedObject(data []byte) (OrderByList, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var out OrderByList
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		var dir string
		if err := dec.Decode(&dir); err != nil {
			return nil, fmt.Errorf("orderBy.%s 必须是字符串: %w", key, err)
		}
		out = append(out, OrderBy{Field: key, Order: SortOrder(strings.ToLower(dir))})
	}
	return out, nil
}

// Cursor 游标分页的不透明定位信息，例如 {"id": 42}。
type Cursor map[string]any

// QueryOptions 是一次列表请求经校验后的查询参数，按请求创建，执行后丢弃。
type QueryOptions struct {
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`

	SearchQuery  string     `json:"searchQuery,omitempty"`
	SearchFields []string   `json:"searchFields,omitempty"`
	SearchMode   SearchMode `json:"searchMode,omitempty"`

	Filters      map[string]any `json:"filters,omitempty"`
	DateFilters  []DateFilter   `json:"dateFilters,omitempty"`
	RangeFilters []RangeFilter  `json:"rangeFilters,omitempty"`
	EnumFilters  []EnumFilter   `json:"enumFilters,omitempty"`

	// SortBy/SortOrder 是 OrderBy 的简写，OrderBy 非空时总是优先。
	SortBy    string      `json:"sortBy,omitempty"`
	SortOrder SortOrder   `json:"sortOrder,omitempty"`
	OrderBy   OrderByList `json:"orderBy,omitempty"`

	Select   map[string]bool `json:"select,omitempty"`
	Include  map[string]any  `json:"include,omitempty"`
	Distinct []string        `json:"distinct,omitempty"`

	Cursor Cursor `json:"cursor,omitempty"`
}

const (
	DefaultLimit     = 10
	DefaultMaxLimit  = 100
	DefaultSortField = "created_at"
)

// Options 是服务端定义的可信查询配置，启动时创建、只读共享。
// 零值字段使用默认值；允许列表为空表示不限制。
type Options struct {
	DefaultLimit        int
	MaxLimit            int
	AllowedSortFields   []string
	AllowedFilterFields []string
	AllowedSearchFields []string
	// DefaultSortField 未指定排序时按该字段倒序，默认 created_at。
	DefaultSortField string
}

func (o Options) withDefaults() Options {
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = DefaultLimit
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = DefaultMaxLimit
	}
	if o.DefaultLimit > o.MaxLimit {
		o.DefaultLimit = o.MaxLimit
	}
	if o.DefaultSortField == "" {
		o.DefaultSortField = DefaultSortField
	}
	return o
}

// Merge 用 override 中的非零字段覆盖 o，用于“全局默认 + 调用点局部配置”。
func (o Options) Merge(override Options) Options {
	if override.DefaultLimit > 0 {
		o.DefaultLimit = override.DefaultLimit
	}
	if override.MaxLimit > 0 {
		o.MaxLimit = override.MaxLimit
	}
	if override.AllowedSortFields != nil {
		o.AllowedSortFields = override.AllowedSortFields
	}
	if override.AllowedFilterFields != nil {
		o.AllowedFilterFields = override.AllowedFilterFields
	}
	if override.AllowedSearchFields != nil {
		o.AllowedSearchFields = override.AllowedSearchFields
	}
	if override.DefaultSortField != "" {
		o.DefaultSortField = override.DefaultSortField
	}
	return o
}

func allowed(list []string, field string) bool {
	if len(list) == 0 {
		return true
	}
	for _, f := range list {
		if f == field {
			return true
		}
	}
	return false
}
