package events

import (
	"time"

	"github.com/google/uuid"
)

// Event represents the base event structure with common fields
type Event struct {
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewEvent creates a new base event with generated correlation ID
func NewEvent() Event {
	return Event{
		CorrelationID: uuid.New().String(),
		Timestamp:     time.Now(),
	}
}

// ProductViewed is published when a user opens a product detail screen.
type ProductViewed struct {
	Event
	UserID       int64  `json:"user_id"`
	ProductID    int64  `json:"product_id"`
	ProductTitle string `json:"product_title"`
}

// FavoriteAdded is published after a favorite row has been written.
type FavoriteAdded struct {
	Event
	UserID       int64  `json:"user_id"`
	ProductID    int64  `json:"product_id"`
	ProductTitle string `json:"product_title"`
}

// FavoriteRemoved is published after a favorite row has been deleted.
type FavoriteRemoved struct {
	Event
	UserID       int64  `json:"user_id"`
	ProductID    int64  `json:"product_id"`
	ProductTitle string `json:"product_title"`
}

// Event topics
const (
	TopicProductViewed   = "product.viewed"
	TopicFavoriteAdded   = "favorite.added"
	TopicFavoriteRemoved = "favorite.removed"
)
