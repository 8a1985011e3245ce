package memdriver

import (
	"context"
	"testing"
	"time"

	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID          int64     `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OnSale      bool      `json:"on_sale"`
	Reviews     int       `json:"reviews_count"`
	CreatedAt   time.Time `json:"created_at"`
}

func seed(t *testing.T, d *Driver, items ...item) []item {
	t.Helper()
	out := make([]item, 0, len(items))
	for _, it := range items {
		it := it
		require.NoError(t, d.Insert(context.Background(), "items", &it))
		out = append(out, it)
	}
	return out
}

func TestInsert_AssignsIDAndCreatedAt(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	d := New(common.NewMockClock(start))

	rows := seed(t, d, item{Title: "a"}, item{Title: "b"})

	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, int64(2), rows[1].ID)
	assert.Equal(t, start, rows[0].CreatedAt)
	assert.True(t, rows[1].CreatedAt.After(rows[0].CreatedAt), "timestamps must be strictly increasing")
}

func TestInsert_KeepsExplicitID(t *testing.T) {
	d := New(nil)
	rows := seed(t, d, item{ID: 10, Title: "fixed"}, item{Title: "next"})

	assert.Equal(t, int64(10), rows[0].ID)
	assert.Equal(t, int64(11), rows[1].ID)
}

func TestSelect_FiltersOrderRange(t *testing.T) {
	d := New(nil)
	seed(t, d,
		item{Title: "Диван", Description: "мягкий", OnSale: true, Reviews: 5},
		item{Title: "Стол", Description: "дубовый", Reviews: 50},
		item{Title: "Стул", Description: "к столу", OnSale: true, Reviews: 20},
	)
	ctx := context.Background()

	tests := []struct {
		name  string
		query *backend.Query
		want  []string
	}{
		{"eq bool", backend.From("items").Eq("on_sale", true).Order("id", true), []string{"Диван", "Стул"}},
		{"order desc", backend.From("items").Order("reviews_count", false), []string{"Стол", "Стул", "Диван"}},
		{"range", backend.From("items").Order("id", true).Range(1, 1), []string{"Стол"}},
		{"range past end", backend.From("items").Range(5, 10), nil},
		{"ilike any column", backend.From("items").ILikeAny("СТОЛ", "title", "description").Order("id", true), []string{"Стол", "Стул"}},
		{"in", backend.From("items").In("id", []int64{1, 3}).Order("id", false), []string{"Стул", "Диван"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []item
			require.NoError(t, d.Select(ctx, tt.query, &got))
			var titles []string
			for _, g := range got {
				titles = append(titles, g.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestSelectOne_NoRows(t *testing.T) {
	d := New(nil)
	var got item
	err := d.SelectOne(context.Background(), backend.From("items").Eq("id", int64(42)), &got)
	assert.True(t, backend.IsNoRows(err))
}

func TestSelect_ProjectsColumns(t *testing.T) {
	d := New(nil)
	seed(t, d, item{Title: "Диван", Description: "мягкий"})

	var got []map[string]interface{}
	require.NoError(t, d.Select(context.Background(), backend.From("items").Select("id, title"), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Диван", got[0]["title"])
	_, hasDescription := got[0]["description"]
	assert.False(t, hasDescription)
}

func TestUpdateCountDelete(t *testing.T) {
	clock := common.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	d := New(clock)
	ctx := context.Background()

	seed(t, d, item{Title: "old"})
	clock.Advance(48 * time.Hour)
	seed(t, d, item{Title: "new"})

	var updated item
	require.NoError(t, d.Update(ctx, backend.From("items").Eq("id", int64(2)), map[string]interface{}{"title": "renamed"}, &updated))
	assert.Equal(t, "renamed", updated.Title)

	err := d.Update(ctx, backend.From("items").Eq("id", int64(99)), map[string]interface{}{"title": "x"}, &updated)
	assert.True(t, backend.IsNoRows(err))

	n, err := d.Count(ctx, backend.From("items"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	cutoff := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	removed, err := d.Delete(ctx, backend.From("items").Lt("created_at", cutoff))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var rest []item
	require.NoError(t, d.Select(ctx, backend.From("items"), &rest))
	require.Len(t, rest, 1)
	assert.Equal(t, "renamed", rest[0].Title)
}

func TestContextCancelled(t *testing.T) {
	d := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var got []item
	assert.ErrorIs(t, d.Select(ctx, backend.From("items"), &got), context.Canceled)
}
