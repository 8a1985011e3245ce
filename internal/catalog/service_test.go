package catalog

import (
	"context"
	"sort"
	"testing"

	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/backend/memdriver"
	"furniture-miniapp/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type catalogFixture struct {
	driver  *memdriver.Driver
	service Service
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	d := memdriver.New(nil)
	return &catalogFixture{
		driver:  d,
		service: NewService(d, zaptest.NewLogger(t), 4),
	}
}

func (f *catalogFixture) insert(t *testing.T, table string, rows ...interface{}) {
	t.Helper()
	for _, r := range rows {
		require.NoError(t, f.driver.Insert(context.Background(), table, r))
	}
}

func ids(cards []ProductCard) []int64 {
	out := make([]int64, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func TestListProducts_SaleFilter(t *testing.T) {
	f := newCatalogFixture(t)
	f.insert(t, TableProducts,
		&Product{ID: 1, Title: "Row 1"},
		&Product{ID: 2, Title: "Row 2", OnSale: true},
		&Product{ID: 3, Title: "Row 3"},
	)

	cards, err := f.service.ListProducts(context.Background(), ListOptions{Filter: FilterSale})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(cards))
}

func TestListProducts_FiltersAndRange(t *testing.T) {
	f := newCatalogFixture(t)
	f.insert(t, TableProducts,
		&Product{ID: 1, Title: "Диван", CategoryID: 1, IsNew: true, ReviewsCount: 10},
		&Product{ID: 2, Title: "Стол", CategoryID: 2, ReviewsCount: 99},
		&Product{ID: 3, Title: "Кресло", CategoryID: 1, IsNew: true, ReviewsCount: 50},
		&Product{ID: 4, Title: "Шкаф", Description: "с диваном в комплекте", CategoryID: 3, ReviewsCount: 1},
	)
	category := int64(1)

	tests := []struct {
		name string
		opts ListOptions
		want []int64
	}{
		{"all ordered by id", ListOptions{}, []int64{1, 2, 3, 4}},
		{"new", ListOptions{Filter: FilterNew}, []int64{1, 3}},
		{"popular", ListOptions{Filter: FilterPopular}, []int64{2, 3, 1, 4}},
		{"category", ListOptions{CategoryID: &category}, []int64{1, 3}},
		{"search title or description", ListOptions{Search: "ДИВАН"}, []int64{1, 4}},
		{"range", ListOptions{Limit: 2, Offset: 1}, []int64{2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards, err := f.service.ListProducts(context.Background(), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(cards))
		})
	}
}

func TestListProducts_JoinsImagesPositionally(t *testing.T) {
	f := newCatalogFixture(t)
	for id := int64(1); id <= 20; id++ {
		f.insert(t, TableProducts, &Product{ID: id, Title: "P"})
		f.insert(t, TableProductImages,
			&ProductImage{ProductID: id, ImageURL: imageURL(id, 2), SortOrder: 2},
			&ProductImage{ProductID: id, ImageURL: imageURL(id, 1), SortOrder: 1},
		)
	}

	cards, err := f.service.ListProducts(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.Len(t, cards, 20)
	for i, c := range cards {
		assert.Equal(t, int64(i+1), c.ID)
		require.NotNil(t, c.Image)
		assert.Equal(t, imageURL(c.ID, 1), *c.Image)
		assert.Equal(t, []string{imageURL(c.ID, 1), imageURL(c.ID, 2)}, c.Images)
	}
}

func TestListProducts_UnknownFilter(t *testing.T) {
	f := newCatalogFixture(t)
	_, err := f.service.ListProducts(context.Background(), ListOptions{Filter: "cheap"})
	assert.True(t, common.IsValidation(err))
}

func TestGetProductByID(t *testing.T) {
	f := newCatalogFixture(t)
	f.insert(t, TableProducts, &Product{ID: 7, Title: "Шкаф", DeliveryTime: "3-5 дней"})
	f.insert(t, TableProductImages, &ProductImage{ProductID: 7, ImageURL: "primary.jpg", SortOrder: 5, IsPrimary: true})

	card, err := f.service.GetProductByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Шкаф", card.Title)
	assert.Equal(t, "3-5 дней", card.DeliveryTime)
	require.NotNil(t, card.Image)
	assert.Equal(t, "primary.jpg", *card.Image)

	_, err = f.service.GetProductByID(context.Background(), 404)
	assert.True(t, common.IsNotFound(err))
}

func TestSearchProducts_BlankQueryMakesNoCall(t *testing.T) {
	svc := NewService(backend.Unavailable(), zaptest.NewLogger(t), 0)

	for _, q := range []string{"", "   ", "\t"} {
		cards, err := svc.SearchProducts(context.Background(), q, 0)
		require.NoError(t, err)
		assert.Empty(t, cards)
	}
}

func TestSearchProducts_AgreesWithLocalFilter(t *testing.T) {
	f := newCatalogFixture(t)
	products := []Product{
		{ID: 1, Title: "Oak Table", Description: "solid wood"},
		{ID: 2, Title: "Sofa", Description: "soft fabric"},
		{ID: 3, Title: "Armchair", Description: "goes with the TABLE"},
		{ID: 4, Title: "Bed", Description: "queen size"},
	}
	for i := range products {
		p := products[i]
		f.insert(t, TableProducts, &p)
	}

	for _, q := range []string{"table", "SOF", "o", "zzz", "wood"} {
		t.Run(q, func(t *testing.T) {
			remote, err := f.service.SearchProducts(context.Background(), q, 50)
			require.NoError(t, err)

			var local []int64
			for _, p := range products {
				if MatchesQuery(p, q) {
					local = append(local, p.ID)
				}
			}
			got := ids(remote)
			sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
			assert.ElementsMatch(t, local, got)
		})
	}
}

func TestConvenienceShelves(t *testing.T) {
	f := newCatalogFixture(t)
	for id := int64(1); id <= 12; id++ {
		f.insert(t, TableProducts, &Product{ID: id, Title: "P", IsNew: true, OnSale: id%2 == 0, ReviewsCount: int(id)})
	}
	ctx := context.Background()

	newest, err := f.service.NewProducts(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, newest, DefaultShelfLimit)

	sale, err := f.service.SaleProducts(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4, 6}, ids(sale))

	popular, err := f.service.PopularProducts(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{12, 11}, ids(popular))

	byCategory, err := f.service.ProductsByCategory(ctx, 0, ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, byCategory, 1)
}

func TestGetProductsByIDs(t *testing.T) {
	f := newCatalogFixture(t)
	f.insert(t, TableProducts, &Product{ID: 1, Title: "A"}, &Product{ID: 2, Title: "B"}, &Product{ID: 3, Title: "C"})

	cards, err := f.service.GetProductsByIDs(context.Background(), []int64{3, 1, 99})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids(cards))

	cards, err = f.service.GetProductsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestCategories(t *testing.T) {
	f := newCatalogFixture(t)
	f.insert(t, TableCategories,
		&Category{ID: 1, Code: "tables", Name: "Столы", IsActive: true, SortOrder: 2},
		&Category{ID: 2, Code: "sofas", Name: "Диваны", IsActive: true, SortOrder: 1},
		&Category{ID: 3, Code: "archive", Name: "Архив", IsActive: false, SortOrder: 0},
	)
	ctx := context.Background()

	categories, err := f.service.GetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "sofas", categories[0].Code)
	assert.Equal(t, "tables", categories[1].Code)

	byID, err := f.service.GetCategoryByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "tables", byID.Code)

	byCode, err := f.service.GetCategoryByCode(ctx, "archive")
	require.NoError(t, err)
	assert.Equal(t, int64(3), byCode.ID)

	_, err = f.service.GetCategoryByCode(ctx, "lamps")
	assert.True(t, common.IsNotFound(err))
}

func imageURL(id int64, n int) string {
	return "https://cdn.example.com/" + string(rune('a'+id)) + "/" + string(rune('0'+n)) + ".jpg"
}
