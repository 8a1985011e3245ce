// Package fixtures holds the demo storefront used to seed the in-memory
// backend in development and in tests.
package fixtures

import (
	"context"
	"fmt"
	"net/url"

	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/catalog"
)

func price(v float64) *float64 { return &v }

// Categories returns the demo categories.
func Categories() []catalog.Category {
	return []catalog.Category{
		{ID: 1, Code: "sofas", Name: "Диваны", Icon: "🛋️", IsActive: true, SortOrder: 1},
		{ID: 2, Code: "tables", Name: "Столы", Icon: "🪵", IsActive: true, SortOrder: 2},
		{ID: 3, Code: "chairs", Name: "Кресла", Icon: "🪑", IsActive: true, SortOrder: 3},
		{ID: 4, Code: "cabinets", Name: "Шкафы", Icon: "📚", IsActive: true, SortOrder: 4},
		{ID: 5, Code: "beds", Name: "Кровати", Icon: "🛏️", IsActive: true, SortOrder: 5},
	}
}

// Products returns the demo products.
func Products() []catalog.Product {
	return []catalog.Product{
		{ID: 1, Title: `Угловой диван "Комфорт"`, Description: "Удобный 3-местный угловой диван", CategoryID: 1, Price: 45000, IsNew: true, Rating: 4.9, ReviewsCount: 123, InStock: true, DeliveryTime: "2-3 рабочих дня"},
		{ID: 2, Title: `Диван-кровать "Модерн"`, Description: "Раскладной диван с ортопедическим матрасом", CategoryID: 1, Price: 38000, OriginalPrice: price(52000), OnSale: true, Rating: 4.7, ReviewsCount: 89, InStock: true, DeliveryTime: "1-2 рабочих дня"},
		{ID: 3, Title: `Обеденный стол "Классик"`, Description: "Стол из массива дуба на 6 персон", CategoryID: 2, Price: 28000, IsNew: true, Rating: 4.8, ReviewsCount: 67, InStock: true, DeliveryTime: "3-5 рабочих дней"},
		{ID: 4, Title: `Журнальный столик "Лофт"`, Description: "Стильный столик в стиле лофт", CategoryID: 2, Price: 12000, OriginalPrice: price(16000), OnSale: true, Rating: 4.6, ReviewsCount: 56, InStock: true, DeliveryTime: "3-5 рабочих дней"},
		{ID: 5, Title: `Кресло "Релакс"`, Description: "Мягкое кресло с подставкой для ног", CategoryID: 3, Price: 18000, IsNew: true, Rating: 4.5, ReviewsCount: 45, InStock: true, DeliveryTime: "2-3 рабочих дня"},
		{ID: 6, Title: `Офисное кресло "Эрго"`, Description: "Эргономичное кресло для работы", CategoryID: 3, Price: 9500, OriginalPrice: price(12000), OnSale: true, Rating: 4.4, ReviewsCount: 78, InStock: true, DeliveryTime: "1-2 рабочих дня"},
		{ID: 7, Title: `Шкаф-купе "Премиум"`, Description: "Вместительный шкаф с зеркалом", CategoryID: 4, Price: 55000, IsNew: true, Rating: 4.8, ReviewsCount: 92, InStock: true, DeliveryTime: "5-7 рабочих дней"},
		{ID: 8, Title: `Комод "Скандинавия"`, Description: "Вместительный комод в скандинавском стиле", CategoryID: 4, Price: 16000, Rating: 4.7, ReviewsCount: 34, InStock: false, DeliveryTime: "3-5 рабочих дней"},
		{ID: 9, Title: `Кровать "Люкс" 160x200`, Description: "Двуспальная кровать с подъемным механизмом", CategoryID: 5, Price: 42000, OriginalPrice: price(55000), OnSale: true, Rating: 4.9, ReviewsCount: 115, InStock: true, DeliveryTime: "3-5 рабочих дней"},
		{ID: 10, Title: `Детская кровать "Облако"`, Description: "Кровать с бортиками 80x160", CategoryID: 5, Price: 22000, IsNew: true, Rating: 4.6, ReviewsCount: 48, InStock: true, DeliveryTime: "2-3 рабочих дня"},
		{ID: 11, Title: `Прямой диван "Престиж"`, Description: "Классический прямой диван", CategoryID: 1, Price: 35000, Rating: 4.6, ReviewsCount: 71, InStock: true, DeliveryTime: "2-3 рабочих дня"},
		{ID: 12, Title: `Рабочий стол "Профи"`, Description: "Письменный стол с ящиками", CategoryID: 2, Price: 15000, IsNew: true, Rating: 4.7, ReviewsCount: 52, InStock: true, DeliveryTime: "1-2 рабочих дня"},
	}
}

var placeholderColors = []string{"9c27b0", "3f51b5", "4caf50", "e91e63", "3390ec", "00bcd4", "795548", "2196f3", "ff9800", "ffeb3b", "673ab7", "009688"}

// ImageURL returns the placeholder photo for a product.
func ImageURL(productID int64, variant int) string {
	color := placeholderColors[int(productID-1)%len(placeholderColors)]
	text := url.QueryEscape(fmt.Sprintf("Товар %d-%d", productID, variant))
	return fmt.Sprintf("https://via.placeholder.com/600x400/%s/ffffff?text=%s", color, text)
}

// Images returns two photos per product; the second is marked primary on
// even product ids so both resolution paths are exercised.
func Images() []catalog.ProductImage {
	var images []catalog.ProductImage
	var id int64
	for _, p := range Products() {
		for variant := 1; variant <= 2; variant++ {
			id++
			images = append(images, catalog.ProductImage{
				ID:        id,
				ProductID: p.ID,
				ImageURL:  ImageURL(p.ID, variant),
				SortOrder: variant,
				IsPrimary: variant == 2 && p.ID%2 == 0,
			})
		}
	}
	return images
}

// Seed writes the demo catalog through driver.
func Seed(ctx context.Context, driver backend.Driver) error {
	for _, c := range Categories() {
		c := c
		if err := driver.Insert(ctx, catalog.TableCategories, &c); err != nil {
			return fmt.Errorf("seed category %s: %w", c.Code, err)
		}
	}
	for _, p := range Products() {
		p := p
		if err := driver.Insert(ctx, catalog.TableProducts, &p); err != nil {
			return fmt.Errorf("seed product %d: %w", p.ID, err)
		}
	}
	for _, img := range Images() {
		img := img
		if err := driver.Insert(ctx, catalog.TableProductImages, &img); err != nil {
			return fmt.Errorf("seed image %d: %w", img.ID, err)
		}
	}
	return nil
}
