package bootstrap

import (
	"fmt"

	"furniture-miniapp/internal/activity"
	"furniture-miniapp/internal/catalog"
	"furniture-miniapp/internal/favorites"
	"furniture-miniapp/internal/user"

	"gorm.io/gorm"
)

// Migrate creates the storefront tables on a bare Postgres. Hosted
// projects manage their schema through Supabase and leave auto_migrate off.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&catalog.Category{},
		&catalog.Product{},
		&catalog.ProductImage{},
		&user.User{},
		&user.Stats{},
		&favorites.Favorite{},
		&activity.Entry{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate storefront tables: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_product_images_product_sort ON product_images(product_id, sort_order)",
		"CREATE INDEX IF NOT EXISTS idx_favorites_created_at ON favorites(user_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_user_activity_user_created ON user_activity(user_id, created_at DESC)",
	}
	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
