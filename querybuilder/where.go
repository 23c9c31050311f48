package querybuilder

import (
	"sort"
	"strings"
	"time"

	"github.com/Xushengqwer/starter_hub/apperrors"
)

// Where 是与存储无关的查询条件树。
// 顶层键为字段名（值为标量或 Cond）或逻辑组合 "AND"/"OR"（值为 []Where）。
type Where map[string]any

// Cond 是单个字段上的条件，键为操作符：in、gte、lte、gt、lt、equals、contains、mode。
type Cond map[string]any

const (
	OpAnd      = "AND"
	OpOr       = "OR"
	OpIn       = "in"
	OpGte      = "gte"
	OpLte      = "lte"
	OpGt       = "gt"
	OpLt       = "lt"
	OpEquals   = "equals"
	OpContains = "contains"
	OpMode     = "mode"
)

// buildWhere 按 基础过滤 -> 搜索 -> 日期 -> 区间 -> 枚举 的顺序收集条件，
// 没有任何条件时返回 nil（匹配全部）。
func buildWhere(q QueryOptions, o Options) (Where, error) {
	var conds []Where

	basic, err := basicFilters(q.Filters, o.AllowedFilterFields)
	if err != nil {
		return nil, err
	}
	conds = append(conds, basic...)

	if search := searchCondition(q, o.AllowedSearchFields); search != nil {
		conds = append(conds, search)
	}

	dates, err := dateFilters(q.DateFilters, o.AllowedFilterFields)
	if err != nil {
		return nil, err
	}
	conds = append(conds, dates...)
	conds = append(conds, rangeFilters(q.RangeFilters, o.AllowedFilterFields)...)
	conds = append(conds, enumFilters(q.EnumFilters, o.AllowedFilterFields)...)

	if len(conds) == 0 {
		return nil, nil
	}
	return Where{OpAnd: conds}, nil
}

// basicFilters 处理 filters：
//   - 含逗号的字符串按 in 处理，数组同样按 in 处理；
//   - 操作符对象（例如 {"gte":5}、{"equals":"a,b"}）校验操作符后转为 Cond；
//   - 其余标量按等值处理。
//
// AND/OR 是保留的组合键，不能作为字段名出现在 filters 中。
func basicFilters(filters map[string]any, allow []string) ([]Where, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	// map 遍历无序，排序后保证同样的输入生成同样的条件
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Where
	for _, field := range keys {
		if field == OpAnd || field == OpOr {
			return nil, invalidFilter(field)
		}
		if !allowed(allow, field) {
			continue
		}
		value := filters[field]
		switch v := value.(type) {
		case nil:
			continue
		case string:
			if v == "" {
				continue
			}
			if strings.Contains(v, ",") {
				out = append(out, Where{field: Cond{OpIn: splitList(v)}})
				continue
			}
			out = append(out, Where{field: v})
		case []any:
			if !scalars(v) {
				return nil, invalidFilter(field)
			}
			out = append(out, Where{field: Cond{OpIn: v}})
		case []string:
			out = append(out, Where{field: Cond{OpIn: stringsToAny(v)}})
		case map[string]any:
			cond, err := operatorCond(field, v)
			if err != nil {
				return nil, err
			}
			out = append(out, Where{field: cond})
		case Cond:
			cond, err := operatorCond(field, v)
			if err != nil {
				return nil, err
			}
			out = append(out, Where{field: cond})
		default:
			out = append(out, Where{field: v})
		}
	}
	return out, nil
}

// operatorCond 校验操作符对象并转换为 Cond。
// 只接受 in/gte/lte/gt/lt/equals/contains（contains 可搭配 mode）；
// in 的值可以是数组或逗号分隔字符串，其余操作符的值必须是标量。
func operatorCond(field string, ops map[string]any) (Cond, error) {
	cond := make(Cond, len(ops))
	for op, v := range ops {
		switch op {
		case OpIn:
			switch list := v.(type) {
			case []any:
				if !scalars(list) {
					return nil, invalidFilter(field + "." + op)
				}
				cond[op] = list
			case []string:
				cond[op] = stringsToAny(list)
			case string:
				cond[op] = splitList(list)
			default:
				return nil, invalidFilter(field + "." + op)
			}
		case OpGte, OpLte, OpGt, OpLt, OpEquals, OpContains:
			switch v.(type) {
			case nil, map[string]any, []any:
				return nil, invalidFilter(field + "." + op)
			}
			cond[op] = v
		case OpMode:
			mode, _ := v.(string)
			if mode != string(SearchDefault) && mode != string(SearchInsensitive) {
				return nil, invalidFilter(field + "." + op)
			}
			if mode == string(SearchInsensitive) {
				cond[op] = mode
			}
		default:
			return nil, invalidFilter(field + "." + op)
		}
	}
	if _, hasMode := cond[OpMode]; hasMode {
		if _, ok := cond[OpContains]; !ok {
			return nil, invalidFilter(field + "." + OpMode)
		}
	}
	if len(cond) == 0 {
		return nil, invalidFilter(field)
	}
	return cond, nil
}

func scalars(list []any) bool {
	for _, v := range list {
		switch v.(type) {
		case nil, map[string]any, []any:
			return false
		}
	}
	return true
}

func invalidFilter(param string) error {
	return apperrors.ErrInvalidQuery.WithArgs(map[string]any{"param": "filters." + param})
}

func searchCondition(q QueryOptions, allow []string) Where {
	query := strings.TrimSpace(q.SearchQuery)
	if query == "" || len(q.SearchFields) == 0 {
		return nil
	}
	var ors []Where
	seen := make(map[string]struct{}, len(q.SearchFields))
	for _, field := range q.SearchFields {
		if field == "" || !allowed(allow, field) {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		cond := Cond{OpContains: query}
		if q.SearchMode == SearchInsensitive {
			cond[OpMode] = string(SearchInsensitive)
		}
		ors = append(ors, Where{field: cond})
	}
	if len(ors) == 0 {
		return nil
	}
	return Where{OpOr: ors}
}

func dateFilters(filters []DateFilter, allow []string) ([]Where, error) {
	var out []Where
	for _, f := range filters {
		if f.Field == "" || !allowed(allow, f.Field) {
			continue
		}
		cond := Cond{}
		if f.From != nil && *f.From != "" {
			t, err := ParseDate(*f.From)
			if err != nil {
				return nil, err
			}
			cond[OpGte] = t
		}
		if f.To != nil && *f.To != "" {
			t, err := ParseDate(*f.To)
			if err != nil {
				return nil, err
			}
			cond[OpLte] = t
		}
		if len(cond) == 0 {
			continue
		}
		out = append(out, Where{f.Field: cond})
	}
	return out, nil
}

func rangeFilters(filters []RangeFilter, allow []string) []Where {
	var out []Where
	for _, f := range filters {
		if f.Field == "" || !allowed(allow, f.Field) {
			continue
		}
		cond := Cond{}
		if f.Min != nil {
			cond[OpGte] = *f.Min
		}
		if f.Max != nil {
			cond[OpLte] = *f.Max
		}
		if len(cond) == 0 {
			continue
		}
		out = append(out, Where{f.Field: cond})
	}
	return out
}

func enumFilters(filters []EnumFilter, allow []string) []Where {
	var out []Where
	for _, f := range filters {
		if f.Field == "" || len(f.Values) == 0 || !allowed(allow, f.Field) {
			continue
		}
		out = append(out, Where{f.Field: Cond{OpIn: f.Values}})
	}
	return out
}

// ParseDate 解析 RFC3339 时间，失败时再按 YYYY-MM-DD 解析（UTC 零点）。
// 解析错误原样返回，不做包装。
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func splitList(s string) []any {
	parts := strings.Split(s, ",")
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
