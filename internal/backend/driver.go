package backend

import "context"

// Driver is one flavour of the hosted backend's query API.
//
// dest arguments are pointers: a slice pointer for Select, a struct pointer
// for SelectOne, Insert and Update. SelectOne and Update report an absent
// row with an *Error carrying CodeNoRows.
type Driver interface {
	Name() string
	Select(ctx context.Context, q *Query, dest interface{}) error
	SelectOne(ctx context.Context, q *Query, dest interface{}) error
	Count(ctx context.Context, q *Query) (int64, error)
	Insert(ctx context.Context, table string, row interface{}) error
	Update(ctx context.Context, q *Query, values map[string]interface{}, dest interface{}) error
	Delete(ctx context.Context, q *Query) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
