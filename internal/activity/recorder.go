package activity

import (
	"context"
	"time"

	"furniture-miniapp/internal/events"

	"go.uber.org/zap"
)

const recordTimeout = 10 * time.Second

// Recorder turns domain events into activity rows. Write failures are
// logged and dropped.
type Recorder struct {
	service Service
	logger  *zap.Logger
}

func NewRecorder(service Service, logger *zap.Logger) *Recorder {
	return &Recorder{service: service, logger: logger}
}

// Subscribe attaches the recorder to bus.
func (r *Recorder) Subscribe(bus events.EventBus) error {
	if err := bus.SubscribeAsync(events.TopicProductViewed, r.handleProductViewed); err != nil {
		return err
	}
	if err := bus.SubscribeAsync(events.TopicFavoriteAdded, r.handleFavoriteAdded); err != nil {
		return err
	}
	return bus.SubscribeAsync(events.TopicFavoriteRemoved, r.handleFavoriteRemoved)
}

func (r *Recorder) handleProductViewed(e events.ProductViewed) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	_, err := r.service.LogProductView(ctx, e.UserID, e.ProductID, e.ProductTitle)
	r.report(err, events.TopicProductViewed, e.Event, e.UserID)
}

func (r *Recorder) handleFavoriteAdded(e events.FavoriteAdded) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	_, err := r.service.LogAddFavorite(ctx, e.UserID, e.ProductID, e.ProductTitle)
	r.report(err, events.TopicFavoriteAdded, e.Event, e.UserID)
}

func (r *Recorder) handleFavoriteRemoved(e events.FavoriteRemoved) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	_, err := r.service.LogRemoveFavorite(ctx, e.UserID, e.ProductID, e.ProductTitle)
	r.report(err, events.TopicFavoriteRemoved, e.Event, e.UserID)
}

func (r *Recorder) report(err error, topic string, e events.Event, userID int64) {
	if err == nil {
		return
	}
	r.logger.Warn("Failed to record activity",
		zap.String("topic", topic),
		zap.String("correlationID", e.CorrelationID),
		zap.Int64("userID", userID),
		zap.Error(err))
}
