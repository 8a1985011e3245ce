package state

import (
	"context"
	"sync"
	"time"

	"furniture-miniapp/internal/catalog"
	"furniture-miniapp/internal/common"
	"furniture-miniapp/internal/events"
	"furniture-miniapp/internal/favorites"
	users "furniture-miniapp/internal/user"

	"go.uber.org/zap"
)

// Dependencies are the services shared by every session.
type Dependencies struct {
	Catalog   catalog.Service
	Favorites favorites.Service
	Users     users.Service
	Bus       events.EventBus
}

// Session is the screen state of one Telegram user.
type Session struct {
	TelegramID int64
	Identity   common.TelegramUser
	User       *User
	Products   *Products
	Favorites  *Favorites

	initMu   sync.Mutex
	ready    bool
	lastSeen time.Time
}

// Ready reports whether the user has been resolved.
func (s *Session) Ready() bool {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	return s.ready
}

// initialize resolves the user and loads favorites and products. Only a
// failed user resolution is returned; the next request retries it.
// Product and favorites failures stay in their holders.
func (s *Session) initialize(ctx context.Context, logger *zap.Logger) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.ready {
		return nil
	}

	if err := s.User.Initialize(ctx, s.Identity); err != nil {
		return err
	}
	if err := s.Favorites.SetUser(ctx, s.User.ID()); err != nil {
		logger.Warn("Favorites not loaded for new session", zap.Int64("telegramID", s.TelegramID), zap.Error(err))
	}
	if err := s.Products.Init(ctx); err != nil {
		logger.Warn("Products not loaded for new session", zap.Int64("telegramID", s.TelegramID), zap.Error(err))
	}
	s.ready = true
	return nil
}

// Registry owns the sessions keyed by Telegram user id. Sessions idle for
// longer than the TTL are dropped by Sweep.
type Registry struct {
	deps   Dependencies
	ttl    time.Duration
	clock  common.Clock
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewRegistry(deps Dependencies, ttl time.Duration, clock common.Clock, logger *zap.Logger) *Registry {
	if clock == nil {
		clock = common.NewRealClock()
	}
	return &Registry{
		deps:     deps,
		ttl:      ttl,
		clock:    clock,
		logger:   logger,
		sessions: make(map[int64]*Session),
	}
}

// Session returns the initialized session for tg, creating it on first
// use.
func (r *Registry) Session(ctx context.Context, tg common.TelegramUser) (*Session, error) {
	if tg.ID == 0 {
		return nil, common.ValidationError{Field: "telegram_id", Message: "Telegram user data is required"}
	}

	r.mu.Lock()
	s, ok := r.sessions[tg.ID]
	if !ok {
		s = &Session{
			TelegramID: tg.ID,
			Identity:   tg,
			User:       NewUser(r.deps.Users, r.logger),
			Products:   NewProducts(r.deps.Catalog, r.logger),
			Favorites:  NewFavorites(r.deps.Favorites, r.deps.Bus, r.logger),
		}
		r.sessions[tg.ID] = s
		r.logger.Debug("Session created", zap.Int64("telegramID", tg.ID))
	}
	s.lastSeen = r.clock.Now()
	r.mu.Unlock()

	if err := s.initialize(ctx, r.logger); err != nil {
		return s, err
	}
	return s, nil
}

// Bus is the event bus sessions publish to.
func (r *Registry) Bus() events.EventBus {
	return r.deps.Bus
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.clock.Now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Debug("Expired sessions", zap.Int("removed", removed), zap.Int("remaining", len(r.sessions)))
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
