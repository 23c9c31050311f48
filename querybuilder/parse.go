package querybuilder

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/Xushengqwer/starter_hub/apperrors"
)

// ParseQuery 把查询字符串展开为 QueryOptions。
// 列表参数（searchFields、distinct）既可以逗号分隔，也可以重复出现；
// orderBy/select/include/filters/dateFilters/rangeFilters/enumFilters/cursor 为 JSON。
// 任何参数格式错误都返回 400 校验错误，details 中标明出错的参数名。
func ParseQuery(values url.Values) (QueryOptions, error) {
	var q QueryOptions

	var err error
	if q.Page, err = intParam(values, "page"); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(values, "limit"); err != nil {
		return q, err
	}

	q.SearchQuery = strings.TrimSpace(values.Get("searchQuery"))
	q.SearchFields = listParam(values, "searchFields")
	if mode := values.Get("searchMode"); mode != "" {
		switch SearchMode(mode) {
		case SearchDefault, SearchInsensitive:
			q.SearchMode = SearchMode(mode)
		default:
			return q, invalidParam("searchMode", nil)
		}
	}

	q.SortBy = strings.TrimSpace(values.Get("sortBy"))
	q.SortOrder = SortOrder(strings.ToLower(strings.TrimSpace(values.Get("sortOrder"))))
	q.Distinct = listParam(values, "distinct")

	jsonParams := []struct {
		name string
		dst  any
	}{
		{"orderBy", &q.OrderBy},
		{"select", &q.Select},
		{"include", &q.Include},
		{"filters", &q.Filters},
		{"dateFilters", &q.DateFilters},
		{"rangeFilters", &q.RangeFilters},
		{"enumFilters", &q.EnumFilters},
		{"cursor", &q.Cursor},
	}
	for _, p := range jsonParams {
		raw := values.Get(p.name)
		if raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(raw), p.dst); err != nil {
			return q, invalidParam(p.name, err)
		}
	}
	return q, nil
}

func intParam(values url.Values, name string) (int, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidParam(name, err)
	}
	return n, nil
}

func listParam(values url.Values, name string) []string {
	var out []string
	for _, raw := range values[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func invalidParam(name string, cause error) error {
	e := apperrors.Validation(apperrors.Composite("query.invalidParameter", map[string]any{"param": name}))
	if cause != nil {
		return e.Wrap(cause)
	}
	return e
}
