package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/Xushengqwer/starter_hub/apperrors"
	"github.com/Xushengqwer/starter_hub/querybuilder"
)

// Field 描述一个可被查询的 API 字段。
//   - Column 是数据库中的安全列名，客户端传入的字段名永远不会被直接拼进 SQL。
//   - Match 可选，用于无法直接映射到本表列的字段（例如关联表上的标签），返回自定义条件；
//     insensitive 表示 contains 需要忽略大小写。
type Field struct {
	Column string
	Match  func(op string, value any, insensitive bool) (clause.Expression, error)
}

// Model 是某个实体可被查询的静态描述，启动时定义，只读共享。
type Model struct {
	// Table 主表名，用于给列名加表前缀
	Table string
	// Fields API 字段名 -> 字段描述
	Fields map[string]Field
	// Relations include 路径 -> GORM 关联名，嵌套路径用点号，例如 "author.profile" -> "Author.Profile"
	Relations map[string]string
	// CursorField 游标分页使用的唯一字段（API 名），同时作为排序的兜底字段
	CursorField string
}

// Delegate 是 querybuilder.CursorDelegate 基于 GORM 的实现。
// - 每个请求构造一个：scopes 通常包含租户隔离条件。
type Delegate[T any] struct {
	db     *gorm.DB
	model  *Model
	scopes []func(*gorm.DB) *gorm.DB
}

// NewDelegate 创建一个绑定了基础作用域的 GORM 委托。
func NewDelegate[T any](db *gorm.DB, model *Model, scopes ...func(*gorm.DB) *gorm.DB) *Delegate[T] {
	return &Delegate[T]{db: db, model: model, scopes: scopes}
}

// TenantScope 把查询限定在指定租户内。
func TenantScope(table, tenantID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Eq{Column: clause.Column{Table: table, Name: "tenant_id"}, Value: tenantID})
	}
}

// EqScope 追加一个等值条件，例如把通知列表限定为当前用户。
func EqScope(table, column string, value any) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Eq{Column: clause.Column{Table: table, Name: column}, Value: value})
	}
}

func (d *Delegate[T]) base(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx).Model(new(T)).Scopes(d.scopes...)
}

// Count 实现 querybuilder.Delegate。
func (d *Delegate[T]) Count(ctx context.Context, where querybuilder.Where) (int64, error) {
	return d.count(ctx, where, nil)
}

// CountDistinct 实现 querybuilder.DistinctCounter，统计按给定字段去重后的行数，
// 与带 distinct 的 FindMany 返回的行保持一致。
func (d *Delegate[T]) CountDistinct(ctx context.Context, where querybuilder.Where, distinct []string) (int64, error) {
	return d.count(ctx, where, distinct)
}

func (d *Delegate[T]) count(ctx context.Context, where querybuilder.Where, distinct []string) (int64, error) {
	tx := d.base(ctx)
	expr, err := d.whereExpr(where)
	if err != nil {
		return 0, err
	}
	if expr != nil {
		tx = tx.Clauses(clause.Where{Exprs: []clause.Expression{expr}})
	}

	if len(distinct) > 0 {
		cols, err := d.columnNames(distinct)
		if err != nil {
			return 0, err
		}
		tx = d.db.WithContext(ctx).Table("(?) AS distinct_rows", tx.Distinct(cols))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("delegate.Count: 查询 %s 总数失败: %w", d.model.Table, err)
	}
	return total, nil
}

// FindMany 实现 querybuilder.Delegate。
func (d *Delegate[T]) FindMany(ctx context.Context, args querybuilder.FindArgs) ([]T, error) {
	tx := d.base(ctx)

	var exprs []clause.Expression
	expr, err := d.whereExpr(args.Where)
	if err != nil {
		return nil, err
	}
	if expr != nil {
		exprs = append(exprs, expr)
	}

	// 排序末尾总是带上游标字段，保证同值行的先后顺序在每一页都一致；
	// distinct 查询的 ORDER BY 列必须出现在选择列中，不追加。
	orderBy := args.OrderBy
	if len(args.Cursor) > 0 || len(args.Distinct) == 0 {
		orderBy = d.withTieBreaker(orderBy)
	}
	if len(args.Cursor) > 0 {
		keyset, err := d.keyset(ctx, orderBy, args.Cursor)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, keyset)
	}
	if len(exprs) > 0 {
		// 过滤条件与游标条件必须同时满足
		tx = tx.Clauses(clause.Where{Exprs: []clause.Expression{clause.And(exprs...)}})
	}

	for _, ob := range orderBy {
		col, err := d.column(ob.Field)
		if err != nil {
			return nil, err
		}
		tx = tx.Order(clause.OrderByColumn{Column: col, Desc: ob.Order == querybuilder.Desc})
	}

	switch {
	case len(args.Distinct) > 0:
		cols, err := d.columnNames(args.Distinct)
		if err != nil {
			return nil, err
		}
		tx = tx.Distinct(cols)
	case len(args.Select) > 0:
		cols, err := d.selectColumns(args.Select)
		if err != nil {
			return nil, err
		}
		tx = tx.Select(cols)
	}

	preloads, err := d.preloads(args.Include)
	if err != nil {
		return nil, err
	}
	for _, p := range preloads {
		tx = tx.Preload(p)
	}

	if args.Skip != nil && *args.Skip > 0 {
		tx = tx.Offset(*args.Skip)
	}
	if args.Take != nil {
		tx = tx.Limit(*args.Take)
	}

	var out []T
	if err := tx.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("delegate.FindMany: 查询 %s 列表失败: %w", d.model.Table, err)
	}
	return out, nil
}

// CursorOf 实现 querybuilder.CursorDelegate，取出行上 CursorField 对应的值。
func (d *Delegate[T]) CursorOf(item T) querybuilder.Cursor {
	f, ok := d.model.Fields[d.model.CursorField]
	if !ok {
		return nil
	}
	s, err := schema.Parse(new(T), schemaCache, d.db.NamingStrategy)
	if err != nil {
		return nil
	}
	field := s.LookUpField(f.Column)
	if field == nil {
		return nil
	}
	value, _ := field.ValueOf(context.Background(), reflect.Indirect(reflect.ValueOf(&item)))
	return querybuilder.Cursor{d.model.CursorField: value}
}

var schemaCache = &sync.Map{}

// withTieBreaker 保证排序末尾包含游标字段，使翻页顺序稳定。
func (d *Delegate[T]) withTieBreaker(orderBy []querybuilder.OrderBy) []querybuilder.OrderBy {
	if d.model.CursorField == "" {
		return orderBy
	}
	for _, ob := range orderBy {
		if ob.Field == d.model.CursorField {
			return orderBy
		}
	}
	dir := querybuilder.Asc
	if len(orderBy) > 0 {
		dir = orderBy[0].Order
	}
	out := make([]querybuilder.OrderBy, 0, len(orderBy)+1)
	out = append(out, orderBy...)
	return append(out, querybuilder.OrderBy{Field: d.model.CursorField, Order: dir})
}

// keyset 生成“严格位于游标行之后”的条件：
// 以第一个排序字段比较，相等时用游标字段兜底。
func (d *Delegate[T]) keyset(ctx context.Context, orderBy []querybuilder.OrderBy, cursor querybuilder.Cursor) (clause.Expression, error) {
	cursorValue, ok := cursor[d.model.CursorField]
	if !ok || cursorValue == nil {
		return nil, apperrors.ErrInvalidQuery.WithArgs(map[string]any{"param": "cursor"})
	}
	idCol, err := d.column(d.model.CursorField)
	if err != nil {
		return nil, err
	}

	first := orderBy[0]
	after := func(col clause.Column, v any) clause.Expression {
		if first.Order == querybuilder.Desc {
			return clause.Lt{Column: col, Value: v}
		}
		return clause.Gt{Column: col, Value: v}
	}

	if first.Field == d.model.CursorField {
		return after(idCol, cursorValue), nil
	}

	sortCol, err := d.column(first.Field)
	if err != nil {
		return nil, err
	}
	var pivot any
	row := d.base(ctx).
		Select(sortCol.Table + "." + sortCol.Name).
		Where(clause.Eq{Column: idCol, Value: cursorValue}).
		Row()
	if err := row.Scan(&pivot); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrInvalidQuery.WithArgs(map[string]any{"param": "cursor"}).Wrap(err)
		}
		return nil, fmt.Errorf("delegate.keyset: 查询游标行失败: %w", err)
	}

	return clause.Or(
		after(sortCol, pivot),
		clause.And(clause.Eq{Column: sortCol, Value: pivot}, after(idCol, cursorValue)),
	), nil
}

func (d *Delegate[T]) column(field string) (clause.Column, error) {
	f, ok := d.model.Fields[field]
	if !ok || f.Column == "" {
		return clause.Column{}, unknownField(field)
	}
	return clause.Column{Table: d.model.Table, Name: f.Column}, nil
}

func (d *Delegate[T]) columnNames(fields []string) ([]string, error) {
	cols := make([]string, 0, len(fields))
	for _, field := range fields {
		f, ok := d.model.Fields[field]
		if !ok || f.Column == "" {
			return nil, unknownField(field)
		}
		cols = append(cols, d.model.Table+"."+f.Column)
	}
	return cols, nil
}

// selectColumns 只选取值为 true 的字段，并总是带上游标字段，以便预加载和游标分页正常工作。
func (d *Delegate[T]) selectColumns(sel map[string]bool) ([]string, error) {
	fields := make([]string, 0, len(sel)+1)
	for field, on := range sel {
		if on {
			fields = append(fields, field)
		}
	}
	if _, ok := sel[d.model.CursorField]; !ok && d.model.CursorField != "" {
		fields = append(fields, d.model.CursorField)
	}
	sort.Strings(fields)
	return d.columnNames(fields)
}

// preloads 把 include 对象展开为 GORM 预加载路径，嵌套对象按点号拼接。
func (d *Delegate[T]) preloads(include map[string]any) ([]string, error) {
	var out []string
	var walk func(prefix string, inc map[string]any) error
	walk = func(prefix string, inc map[string]any) error {
		keys := make([]string, 0, len(inc))
		for k := range inc {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			switch v := inc[k].(type) {
			case bool:
				if !v {
					continue
				}
			case map[string]any:
			default:
				return apperrors.ErrInvalidQuery.WithArgs(map[string]any{"param": "include"})
			}
			assoc, ok := d.model.Relations[path]
			if !ok {
				return apperrors.ErrInvalidQuery.WithArgs(map[string]any{"param": "include." + path})
			}
			out = append(out, assoc)
			if nested, ok := inc[k].(map[string]any); ok {
				if err := walk(path, nested); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk("", include); err != nil {
		return nil, err
	}
	return out, nil
}

// whereExpr 把 querybuilder.Where 翻译为 GORM 子句表达式，空条件返回 nil。
//
// GORM 会把只含一项的 OrConditions 渲染成前导 OR（"a OR b" 而不是 "a AND (b)"），
// 所以单个子条件的组合直接展开，多个子条件才包装成带括号的 AND/OR 组。
func (d *Delegate[T]) whereExpr(w querybuilder.Where) (clause.Expression, error) {
	keys := make([]string, 0, len(w))
	for k := range w {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	exprs := make([]clause.Expression, 0, len(keys))
	for _, key := range keys {
		value := w[key]
		switch key {
		case querybuilder.OpAnd, querybuilder.OpOr:
			children, ok := value.([]querybuilder.Where)
			if !ok {
				return nil, unknownField(key)
			}
			sub := make([]clause.Expression, 0, len(children))
			for _, child := range children {
				e, err := d.whereExpr(child)
				if err != nil {
					return nil, err
				}
				if e != nil {
					sub = append(sub, e)
				}
			}
			switch {
			case len(sub) == 0:
			case len(sub) == 1:
				exprs = append(exprs, sub[0])
			case key == querybuilder.OpAnd:
				exprs = append(exprs, clause.AndConditions{Exprs: sub})
			default:
				exprs = append(exprs, clause.OrConditions{Exprs: sub})
			}
		default:
			e, err := d.fieldExpr(key, value)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e)
		}
	}
	switch len(exprs) {
	case 0:
		return nil, nil
	case 1:
		return exprs[0], nil
	}
	return clause.AndConditions{Exprs: exprs}, nil
}

func (d *Delegate[T]) fieldExpr(field string, value any) (clause.Expression, error) {
	f, ok := d.model.Fields[field]
	if !ok {
		return nil, unknownField(field)
	}

	var cond querybuilder.Cond
	switch v := value.(type) {
	case querybuilder.Cond:
		cond = v
	case []any, []string:
		cond = querybuilder.Cond{querybuilder.OpIn: v}
	case map[string]any, nil:
		return nil, unknownField(field)
	default:
		cond = querybuilder.Cond{querybuilder.OpEquals: value}
	}

	insensitive := cond[querybuilder.OpMode] == string(querybuilder.SearchInsensitive)
	ops := make([]string, 0, len(cond))
	for op := range cond {
		if op != querybuilder.OpMode {
			ops = append(ops, op)
		}
	}
	sort.Strings(ops)
	if len(ops) == 0 {
		return nil, unknownField(field)
	}

	col := clause.Column{Table: d.model.Table, Name: f.Column}
	exprs := make([]clause.Expression, 0, len(ops))
	for _, op := range ops {
		var (
			e   clause.Expression
			err error
		)
		if f.Match != nil {
			e, err = f.Match(op, cond[op], insensitive)
		} else {
			e, err = compare(col, field, op, cond[op], insensitive)
		}
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return clause.AndConditions{Exprs: exprs}, nil
}

// compare 生成 "列 <op> 值" 条件，列既可以是主表列，也可以是关联子查询里的列。
func compare(col clause.Column, field, op string, v any, insensitive bool) (clause.Expression, error) {
	switch op {
	case querybuilder.OpEquals:
		return clause.Eq{Column: col, Value: v}, nil
	case querybuilder.OpIn:
		values, ok := listValues(v)
		if !ok {
			return nil, unknownField(field + "." + op)
		}
		return clause.IN{Column: col, Values: values}, nil
	case querybuilder.OpGte:
		return clause.Gte{Column: col, Value: v}, nil
	case querybuilder.OpLte:
		return clause.Lte{Column: col, Value: v}, nil
	case querybuilder.OpGt:
		return clause.Gt{Column: col, Value: v}, nil
	case querybuilder.OpLt:
		return clause.Lt{Column: col, Value: v}, nil
	case querybuilder.OpContains:
		pattern := containsPattern(v)
		if insensitive {
			return clause.Expr{SQL: "LOWER(?) LIKE ? ESCAPE '" + likeEscapeChar + "'", Vars: []any{col, strings.ToLower(pattern)}}, nil
		}
		return clause.Expr{SQL: "? LIKE ? ESCAPE '" + likeEscapeChar + "'", Vars: []any{col, pattern}}, nil
	}
	return nil, unknownField(field + "." + op)
}

// likeEscapeChar 是 LIKE 的转义字符。不用反斜杠：MySQL 字符串字面量会吞掉它，SQLite 要求 ESCAPE 恰好一个字符。
const likeEscapeChar = "!"

var likeEscaper = strings.NewReplacer(likeEscapeChar, likeEscapeChar+likeEscapeChar, "%", likeEscapeChar+"%", "_", likeEscapeChar+"_")

// containsPattern 把用户输入当作字面量，转义其中的 % 和 _ 后两端加通配符。
func containsPattern(v any) string {
	return "%" + likeEscaper.Replace(fmt.Sprint(v)) + "%"
}

func listValues(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func unknownField(field string) error {
	return apperrors.ErrInvalidQuery.WithArgs(map[string]any{"param": field})
}
