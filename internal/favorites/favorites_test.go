package favorites

import (
	"context"
	"testing"

	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/backend/memdriver"
	"furniture-miniapp/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) (Service, *memdriver.Driver) {
	t.Helper()
	d := memdriver.New(nil)
	ctx := context.Background()
	for id := int64(1); id <= 3; id++ {
		require.NoError(t, d.Insert(ctx, catalog.TableProducts, &catalog.Product{ID: id, Title: "Товар"}))
	}
	require.NoError(t, d.Insert(ctx, catalog.TableProductImages, &catalog.ProductImage{ProductID: 2, ImageURL: "two.jpg", SortOrder: 1}))

	logger := zaptest.NewLogger(t)
	products := catalog.NewService(d, logger, 2)
	return NewService(d, products, logger), d
}

func TestAdd_Idempotent(t *testing.T) {
	svc, d := newTestService(t)
	ctx := context.Background()

	first, err := svc.Add(ctx, 10, 2)
	require.NoError(t, err)
	second, err := svc.Add(ctx, 10, 2)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	n, err := d.Count(ctx, backend.From(TableFavorites).Eq("user_id", int64(10)).Eq("product_id", int64(2)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRemove_AbsentPair(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, 10, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, 10, 3))

	n, err := svc.Count(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestIsFavorite(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ok, err := svc.IsFavorite(ctx, 10, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Add(ctx, 10, 1)
	require.NoError(t, err)

	ok, err = svc.IsFavorite(ctx, 10, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsFavorite(ctx, 11, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListForUser_NewestFirstKeyedByProduct(t *testing.T) {
	svc, d := newTestService(t)
	ctx := context.Background()

	for _, productID := range []int64{1, 3, 2} {
		_, err := svc.Add(ctx, 10, productID)
		require.NoError(t, err)
	}
	_, err := svc.Add(ctx, 20, 1)
	require.NoError(t, err)

	// A favorite pointing at a deleted product is dropped.
	_, err = d.Delete(ctx, backend.From(catalog.TableProducts).Eq("id", int64(3)))
	require.NoError(t, err)

	cards, err := svc.ListForUser(ctx, 10)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, int64(2), cards[0].ID)
	assert.Equal(t, int64(1), cards[1].ID)
	require.NotNil(t, cards[0].Image)
	assert.Equal(t, "two.jpg", *cards[0].Image)
	assert.Nil(t, cards[1].Image)

	empty, err := svc.ListForUser(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestClearAndCount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, productID := range []int64{1, 2} {
		_, err := svc.Add(ctx, 10, productID)
		require.NoError(t, err)
	}
	_, err := svc.Add(ctx, 20, 1)
	require.NoError(t, err)

	n, err := svc.Count(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, svc.Clear(ctx, 10))

	n, err = svc.Count(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = svc.Count(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDegradedBackend(t *testing.T) {
	logger := zaptest.NewLogger(t)
	svc := NewService(backend.Unavailable(), catalog.NewService(backend.Unavailable(), logger, 0), logger)

	_, err := svc.Add(context.Background(), 1, 1)
	assert.ErrorIs(t, err, backend.ErrBackendUnavailable)

	_, err = svc.IsFavorite(context.Background(), 1, 1)
	assert.ErrorIs(t, err, backend.ErrBackendUnavailable)
}
