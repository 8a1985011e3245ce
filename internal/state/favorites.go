package state

import (
	"context"
	"sync"

	"furniture-miniapp/internal/catalog"
	"furniture-miniapp/internal/events"
	"furniture-miniapp/internal/favorites"

	"go.uber.org/zap"
)

// FavoritesSnapshot is a copy of the favorites holder's state.
type FavoritesSnapshot struct {
	Items  []catalog.ProductCard `json:"items"`
	IDs    []int64               `json:"ids"`
	Status Status                `json:"status"`
	Error  string                `json:"error,omitempty"`
}

// Favorites mirrors a user's favorites: the ordered product list and a
// membership set. Local state changes only after the backend call
// succeeds.
type Favorites struct {
	service favorites.Service
	bus     events.EventBus
	logger  *zap.Logger

	mu     sync.RWMutex
	userID int64
	items  []catalog.ProductCard
	ids    map[int64]struct{}
	status Status
	errMsg string
	seq    uint64
}

func NewFavorites(service favorites.Service, bus events.EventBus, logger *zap.Logger) *Favorites {
	return &Favorites{
		service: service,
		bus:     bus,
		logger:  logger,
		items:   []catalog.ProductCard{},
		ids:     make(map[int64]struct{}),
		status:  StatusIdle,
	}
}

// SetUser binds the holder to a backend user id and reloads.
func (f *Favorites) SetUser(ctx context.Context, userID int64) error {
	f.mu.Lock()
	f.userID = userID
	f.mu.Unlock()
	return f.Load(ctx)
}

func (f *Favorites) UserID() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.userID
}

// Load replaces the local list with the backend's. Without a user the
// holder is emptied.
func (f *Favorites) Load(ctx context.Context) error {
	f.mu.Lock()
	userID := f.userID
	if userID == 0 {
		f.seq++
		f.reset()
		f.mu.Unlock()
		return nil
	}
	f.seq++
	seq := f.seq
	f.status = StatusLoading
	f.errMsg = ""
	f.mu.Unlock()

	items, err := f.service.ListForUser(ctx, userID)

	f.mu.Lock()
	defer f.mu.Unlock()
	if seq != f.seq {
		f.logger.Debug("Dropping stale favorites load", zap.Uint64("seq", seq), zap.Uint64("latest", f.seq))
		return err
	}
	if err != nil {
		f.logger.Error("Error loading favorites", zap.Int64("userID", userID), zap.Error(err))
		f.reset()
		f.status = StatusError
		f.errMsg = msgLoadFavorites
		return err
	}
	f.items = items
	f.ids = make(map[int64]struct{}, len(items))
	for _, item := range items {
		f.ids[item.ID] = struct{}{}
	}
	f.status = StatusSuccess
	return nil
}

// supersedeLoads drops loads still in flight: their lists predate a
// mutation that has already succeeded. Callers hold f.mu.
func (f *Favorites) supersedeLoads() {
	f.seq++
	if f.status == StatusLoading {
		f.status = StatusIdle
	}
}

func (f *Favorites) reset() {
	f.items = []catalog.ProductCard{}
	f.ids = make(map[int64]struct{})
}

// requireUser returns the bound user or records ErrUserNotInitialized.
func (f *Favorites) requireUser() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.userID == 0 {
		f.errMsg = ErrUserNotInitialized.Error()
		return 0, ErrUserNotInitialized
	}
	return f.userID, nil
}

func (f *Favorites) fail(msg string) {
	f.mu.Lock()
	f.errMsg = msg
	f.mu.Unlock()
}

// Add marks productID as favorite. The title, when known, is attached to
// the published activity event.
func (f *Favorites) Add(ctx context.Context, productID int64, title string) (bool, error) {
	userID, err := f.requireUser()
	if err != nil {
		return false, err
	}

	if _, err := f.service.Add(ctx, userID, productID); err != nil {
		f.logger.Error("Error adding to favorites", zap.Int64("productID", productID), zap.Error(err))
		f.fail(msgAddFavorite)
		return false, err
	}

	f.mu.Lock()
	f.ids[productID] = struct{}{}
	f.supersedeLoads()
	f.mu.Unlock()

	if title != "" {
		f.publish(events.TopicFavoriteAdded, events.FavoriteAdded{
			Event:        events.NewEvent(),
			UserID:       userID,
			ProductID:    productID,
			ProductTitle: title,
		})
	}
	return true, nil
}

// Remove unmarks productID and drops it from the loaded list.
func (f *Favorites) Remove(ctx context.Context, productID int64, title string) (bool, error) {
	userID, err := f.requireUser()
	if err != nil {
		return false, err
	}

	if err := f.service.Remove(ctx, userID, productID); err != nil {
		f.logger.Error("Error removing from favorites", zap.Int64("productID", productID), zap.Error(err))
		f.fail(msgRemoveFavorite)
		return false, err
	}

	f.mu.Lock()
	delete(f.ids, productID)
	kept := f.items[:0:0]
	for _, item := range f.items {
		if item.ID != productID {
			kept = append(kept, item)
		}
	}
	f.items = kept
	f.supersedeLoads()
	f.mu.Unlock()

	if title != "" {
		f.publish(events.TopicFavoriteRemoved, events.FavoriteRemoved{
			Event:        events.NewEvent(),
			UserID:       userID,
			ProductID:    productID,
			ProductTitle: title,
		})
	}
	return true, nil
}

// Toggle adds or removes productID depending on current membership and
// returns the new membership.
func (f *Favorites) Toggle(ctx context.Context, productID int64, title string) (bool, error) {
	if f.IsFavorite(productID) {
		if _, err := f.Remove(ctx, productID, title); err != nil {
			return true, err
		}
		return false, nil
	}
	if _, err := f.Add(ctx, productID, title); err != nil {
		return false, err
	}
	return true, nil
}

func (f *Favorites) IsFavorite(productID int64) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.ids[productID]
	return ok
}

func (f *Favorites) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.ids)
}

// Clear removes every favorite of the bound user.
func (f *Favorites) Clear(ctx context.Context) (bool, error) {
	userID, err := f.requireUser()
	if err != nil {
		return false, err
	}

	if err := f.service.Clear(ctx, userID); err != nil {
		f.logger.Error("Error clearing favorites", zap.Int64("userID", userID), zap.Error(err))
		f.fail(msgClearFavorites)
		return false, err
	}

	f.mu.Lock()
	f.reset()
	f.supersedeLoads()
	f.mu.Unlock()
	return true, nil
}

func (f *Favorites) publish(topic string, event interface{}) {
	if f.bus == nil {
		return
	}
	if err := f.bus.Publish(topic, event); err != nil {
		f.logger.Warn("Failed to publish favorites event", zap.String("topic", topic), zap.Error(err))
	}
}

func (f *Favorites) Snapshot() FavoritesSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ids := make([]int64, 0, len(f.ids))
	for _, item := range f.items {
		if _, ok := f.ids[item.ID]; ok {
			ids = append(ids, item.ID)
		}
	}
	// ids added since the last load have no card yet
	listed := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		listed[id] = struct{}{}
	}
	for id := range f.ids {
		if _, ok := listed[id]; !ok {
			ids = append(ids, id)
		}
	}

	return FavoritesSnapshot{
		Items:  append([]catalog.ProductCard{}, f.items...),
		IDs:    ids,
		Status: f.status,
		Error:  f.errMsg,
	}
}

func (f *Favorites) ClearError() {
	f.mu.Lock()
	f.errMsg = ""
	if f.status == StatusError {
		f.status = StatusIdle
	}
	f.mu.Unlock()
}
