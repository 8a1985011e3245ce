// Package gormdriver serves the backend query interface straight from the
// Postgres database behind the Supabase project.
package gormdriver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/database"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Driver implements backend.Driver with gorm.
type Driver struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New wraps an open gorm connection.
func New(db *gorm.DB, logger *zap.Logger) *Driver {
	return &Driver{db: db, logger: logger}
}

func (d *Driver) Name() string { return "postgres" }

func (d *Driver) Ping(ctx context.Context) error {
	return database.HealthCheck(ctx, d.db)
}

func (d *Driver) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Driver) Select(ctx context.Context, q *backend.Query, dest interface{}) error {
	tx, err := d.scoped(ctx, q, true)
	if err != nil {
		return err
	}
	return translate(tx.Find(dest).Error)
}

func (d *Driver) SelectOne(ctx context.Context, q *backend.Query, dest interface{}) error {
	tx, err := d.scoped(ctx, q, true)
	if err != nil {
		return err
	}
	result := tx.Limit(2).Find(dest)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected != 1 {
		return backend.NoRows(q.Table)
	}
	return nil
}

func (d *Driver) Count(ctx context.Context, q *backend.Query) (int64, error) {
	counted := *q
	counted.Orders = nil
	counted.Limit, counted.Offset = 0, 0
	tx, err := d.scoped(ctx, &counted, false)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return n, nil
}

func (d *Driver) Insert(ctx context.Context, table string, row interface{}) error {
	if !identifier.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	return translate(d.db.WithContext(ctx).Table(table).Create(row).Error)
}

func (d *Driver) Update(ctx context.Context, q *backend.Query, values map[string]interface{}, dest interface{}) error {
	if len(q.Filters) == 0 {
		return fmt.Errorf("refusing to update %s without filters", q.Table)
	}
	tx, err := d.scoped(ctx, &backend.Query{Table: q.Table, Filters: q.Filters}, false)
	if err != nil {
		return err
	}
	result := tx.Updates(values)
	if result.Error != nil {
		return translate(result.Error)
	}
	if dest == nil {
		return nil
	}
	if result.RowsAffected == 0 {
		return backend.NoRows(q.Table)
	}
	return d.SelectOne(ctx, q, dest)
}

func (d *Driver) Delete(ctx context.Context, q *backend.Query) (int64, error) {
	if len(q.Filters) == 0 {
		return 0, fmt.Errorf("refusing to delete from %s without filters", q.Table)
	}
	if !identifier.MatchString(q.Table) {
		return 0, fmt.Errorf("invalid table name %q", q.Table)
	}
	where, args, err := whereClause(q)
	if err != nil {
		return 0, err
	}
	result := d.db.WithContext(ctx).Exec(fmt.Sprintf(`DELETE FROM %q WHERE %s`, q.Table, where), args...)
	if result.Error != nil {
		return 0, translate(result.Error)
	}
	return result.RowsAffected, nil
}

// scoped builds the gorm statement for q. withShape applies the column
// list, ordering and range.
func (d *Driver) scoped(ctx context.Context, q *backend.Query, withShape bool) (*gorm.DB, error) {
	if !identifier.MatchString(q.Table) {
		return nil, fmt.Errorf("invalid table name %q", q.Table)
	}
	tx := d.db.WithContext(ctx).Table(q.Table)

	if len(q.Filters) > 0 || q.AnyOf != nil {
		where, args, err := whereClause(q)
		if err != nil {
			return nil, err
		}
		tx = tx.Where(where, args...)
	}

	if !withShape {
		return tx, nil
	}

	if columns := q.ColumnList(); len(columns) > 0 {
		for _, c := range columns {
			if !identifier.MatchString(c) {
				return nil, fmt.Errorf("invalid column %q", c)
			}
		}
		tx = tx.Select(columns)
	}
	for _, o := range q.Orders {
		if !identifier.MatchString(o.Column) {
			return nil, fmt.Errorf("invalid order column %q", o.Column)
		}
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Column}, Desc: !o.Ascending})
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	return tx, nil
}

// whereClause renders the filters of q as a parameterized SQL condition.
func whereClause(q *backend.Query) (string, []interface{}, error) {
	var (
		parts []string
		args  []interface{}
	)
	for _, f := range q.Filters {
		if !identifier.MatchString(f.Column) {
			return "", nil, fmt.Errorf("invalid filter column %q", f.Column)
		}
		switch f.Op {
		case backend.OpEq:
			parts = append(parts, fmt.Sprintf("%q = ?", f.Column))
		case backend.OpLt:
			parts = append(parts, fmt.Sprintf("%q < ?", f.Column))
		case backend.OpIn:
			parts = append(parts, fmt.Sprintf("%q IN ?", f.Column))
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", f.Op)
		}
		args = append(args, f.Value)
	}

	if q.AnyOf != nil && len(q.AnyOf.Columns) > 0 {
		pattern := "%" + escapeLike(q.AnyOf.Term) + "%"
		ors := make([]string, len(q.AnyOf.Columns))
		for i, c := range q.AnyOf.Columns {
			if !identifier.MatchString(c) {
				return "", nil, fmt.Errorf("invalid search column %q", c)
			}
			ors[i] = fmt.Sprintf("%q ILIKE ?", c)
			args = append(args, pattern)
		}
		parts = append(parts, "("+strings.Join(ors, " OR ")+")")
	}

	if len(parts) == 0 {
		return "TRUE", nil, nil
	}
	return strings.Join(parts, " AND "), args, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// translate maps driver errors onto the backend error shape.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return backend.NoRows("")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &backend.Error{
			Code:    pgErr.Code,
			Message: pgErr.Message,
			Details: pgErr.Detail,
			Hint:    pgErr.Hint,
		}
	}
	return err
}
