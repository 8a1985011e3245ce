// Package memdriver keeps backend tables in process memory. It evaluates
// queries with the same semantics as the hosted backend and backs dev mode
// and the test suites.
package memdriver

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/common"
)

type row map[string]interface{}

// Driver is an in-memory backend.Driver.
type Driver struct {
	mu     sync.RWMutex
	tables map[string][]row
	nextID map[string]int64
	clock  common.Clock
	last   time.Time
}

// New creates an empty in-memory backend.
func New(clock common.Clock) *Driver {
	if clock == nil {
		clock = common.NewRealClock()
	}
	return &Driver{
		tables: make(map[string][]row),
		nextID: make(map[string]int64),
		clock:  clock,
	}
}

func (d *Driver) Name() string { return "memory" }

func (d *Driver) Ping(context.Context) error { return nil }

func (d *Driver) Close() error { return nil }

func (d *Driver) Select(ctx context.Context, q *backend.Query, dest interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.RLock()
	rows := d.query(q)
	d.mu.RUnlock()
	return decode(rows, dest)
}

func (d *Driver) SelectOne(ctx context.Context, q *backend.Query, dest interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.RLock()
	rows := d.query(q)
	d.mu.RUnlock()
	if len(rows) != 1 {
		return backend.NoRows(q.Table)
	}
	return decode(rows[0], dest)
}

func (d *Driver) Count(ctx context.Context, q *backend.Query) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return int64(len(d.matching(q))), nil
}

// Insert stores row and writes the stored representation (with id and
// created_at filled in) back into it.
func (d *Driver) Insert(ctx context.Context, table string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	values, err := backend.RowValues(value)
	if err != nil {
		return fmt.Errorf("memdriver: encode %s row: %w", table, err)
	}
	r := row(values)

	d.mu.Lock()
	if id, ok := r["id"].(float64); !ok {
		d.nextID[table]++
		r["id"] = float64(d.nextID[table])
	} else if int64(id) > d.nextID[table] {
		d.nextID[table] = int64(id)
	}
	if _, ok := r["created_at"]; !ok {
		r["created_at"] = d.timestamp()
	}
	d.tables[table] = append(d.tables[table], r)
	stored := copyRow(r)
	d.mu.Unlock()

	return decode(stored, value)
}

func (d *Driver) Update(ctx context.Context, q *backend.Query, values map[string]interface{}, dest interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var patch row
	if err := decode(values, &patch); err != nil {
		return fmt.Errorf("memdriver: encode %s patch: %w", q.Table, err)
	}

	d.mu.Lock()
	var updated []row
	for _, r := range d.tables[q.Table] {
		if !d.matches(r, q) {
			continue
		}
		for k, v := range patch {
			r[k] = v
		}
		updated = append(updated, copyRow(r))
	}
	d.mu.Unlock()

	if dest == nil {
		return nil
	}
	if len(updated) != 1 {
		return backend.NoRows(q.Table)
	}
	return decode(updated[0], dest)
}

func (d *Driver) Delete(ctx context.Context, q *backend.Query) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := d.tables[q.Table][:0]
	var removed int64
	for _, r := range d.tables[q.Table] {
		if d.matches(r, q) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	d.tables[q.Table] = kept
	return removed, nil
}

// timestamp returns a strictly increasing creation time so ordering by
// created_at is total even for rows inserted within one clock tick.
func (d *Driver) timestamp() string {
	now := d.clock.Now().UTC()
	if !now.After(d.last) {
		now = d.last.Add(time.Microsecond)
	}
	d.last = now
	return now.Format(time.RFC3339Nano)
}

func (d *Driver) matching(q *backend.Query) []row {
	var out []row
	for _, r := range d.tables[q.Table] {
		if d.matches(r, q) {
			out = append(out, r)
		}
	}
	return out
}

func (d *Driver) query(q *backend.Query) []row {
	rows := d.matching(q)

	if len(q.Orders) > 0 {
		sort.SliceStable(rows, func(i, j int) bool {
			for _, o := range q.Orders {
				c := compare(rows[i][o.Column], rows[j][o.Column])
				if c == 0 {
					continue
				}
				if o.Ascending {
					return c < 0
				}
				return c > 0
			}
			return false
		})
	}

	if q.Offset > 0 {
		if q.Offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[q.Offset:]
		}
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	out := make([]row, len(rows))
	columns := q.ColumnList()
	for i, r := range rows {
		out[i] = project(r, columns)
	}
	return out
}

func (d *Driver) matches(r row, q *backend.Query) bool {
	for _, f := range q.Filters {
		v := r[f.Column]
		switch f.Op {
		case backend.OpEq:
			if compare(v, normalize(f.Value)) != 0 {
				return false
			}
		case backend.OpLt:
			if v == nil || compare(v, normalize(f.Value)) >= 0 {
				return false
			}
		case backend.OpIn:
			ids, _ := f.Value.([]int64)
			found := false
			for _, id := range ids {
				if compare(v, float64(id)) == 0 {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}

	if q.AnyOf != nil {
		hit := false
		for _, col := range q.AnyOf.Columns {
			if s, ok := r[col].(string); ok && backend.ContainsFold(s, q.AnyOf.Term) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// normalize converts a filter value into its JSON-decoded form so it
// compares equal to stored values.
func normalize(v interface{}) interface{} {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	var out interface{}
	if err := decode(v, &out); err != nil {
		return v
	}
	return out
}

func compare(a, b interface{}) int {
	switch x := a.(type) {
	case nil:
		if b == nil {
			return 0
		}
		return -1
	case float64:
		y, ok := b.(float64)
		if !ok {
			return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case bool:
		y, ok := b.(bool)
		if !ok {
			return -1
		}
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case string:
		y, ok := b.(string)
		if !ok {
			return strings.Compare(x, fmt.Sprint(b))
		}
		tx, errX := time.Parse(time.RFC3339Nano, x)
		ty, errY := time.Parse(time.RFC3339Nano, y)
		if errX == nil && errY == nil {
			return tx.Compare(ty)
		}
		return strings.Compare(x, y)
	}
	if b == nil {
		return 1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func project(r row, columns []string) row {
	if len(columns) == 0 {
		return copyRow(r)
	}
	out := make(row, len(columns))
	for _, c := range columns {
		if v, ok := r[c]; ok {
			out[c] = v
		}
	}
	return out
}

func copyRow(r row) row {
	out := make(row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// decode moves src into dest through its JSON representation, the same
// path rows take over the wire.
func decode(src, dest interface{}) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}
