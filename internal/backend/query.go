package backend

import (
	"encoding/json"
	"strings"
)

// Op is a comparison operator understood by every driver.
type Op string

const (
	OpEq Op = "eq"
	OpLt Op = "lt"
	OpIn Op = "in"
)

// Filter is a single column predicate.
type Filter struct {
	Column string
	Op     Op
	Value  interface{}
}

// ILikeGroup matches rows where any of Columns contains Term,
// case-insensitively.
type ILikeGroup struct {
	Term    string
	Columns []string
}

// Order is one ORDER BY term.
type Order struct {
	Column    string
	Ascending bool
}

// Query describes a read, update or delete against a single table. It is
// built fluently:
//
//	backend.From("products").Select(cols).Eq("is_new", true).Order("id", true).Range(0, 100)
type Query struct {
	Table   string
	Columns string
	Filters []Filter
	AnyOf   *ILikeGroup
	Orders  []Order
	Limit   int
	Offset  int
}

func From(table string) *Query {
	return &Query{Table: table, Columns: "*"}
}

func (q *Query) Select(columns string) *Query {
	q.Columns = columns
	return q
}

func (q *Query) Eq(column string, value interface{}) *Query {
	q.Filters = append(q.Filters, Filter{Column: column, Op: OpEq, Value: value})
	return q
}

func (q *Query) Lt(column string, value interface{}) *Query {
	q.Filters = append(q.Filters, Filter{Column: column, Op: OpLt, Value: value})
	return q
}

// In matches rows whose column equals one of values.
func (q *Query) In(column string, values []int64) *Query {
	q.Filters = append(q.Filters, Filter{Column: column, Op: OpIn, Value: values})
	return q
}

// ILikeAny adds a substring match of term over any of columns.
func (q *Query) ILikeAny(term string, columns ...string) *Query {
	q.AnyOf = &ILikeGroup{Term: term, Columns: columns}
	return q
}

func (q *Query) Order(column string, ascending bool) *Query {
	q.Orders = append(q.Orders, Order{Column: column, Ascending: ascending})
	return q
}

// Range limits the result to [offset, offset+limit).
func (q *Query) Range(offset, limit int) *Query {
	q.Offset = offset
	q.Limit = limit
	return q
}

// ColumnList splits Columns into trimmed names; "*" yields nil.
func (q *Query) ColumnList() []string {
	if strings.TrimSpace(q.Columns) == "" || strings.TrimSpace(q.Columns) == "*" {
		return nil
	}
	parts := strings.Split(q.Columns, ",")
	columns := make([]string, 0, len(parts))
	for _, p := range parts {
		if c := strings.TrimSpace(p); c != "" {
			columns = append(columns, c)
		}
	}
	return columns
}

// ContainsFold is the case-insensitive substring predicate behind ILikeAny
// for drivers that evaluate it in process.
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// RowValues encodes row as a column map, dropping zero-valued generated
// columns (id, created_at) so the store assigns them.
func RowValues(row interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}
	values := make(map[string]interface{})
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	if id, ok := values["id"].(float64); ok && id == 0 {
		delete(values, "id")
	}
	if v, present := values["id"]; present && v == nil {
		delete(values, "id")
	}
	if created, ok := values["created_at"].(string); ok && (created == "" || strings.HasPrefix(created, "0001-01-01")) {
		delete(values, "created_at")
	}
	return values, nil
}
