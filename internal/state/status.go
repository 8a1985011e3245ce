// Package state holds per-session screen state and reconciles it with the
// backend. Every holder is safe for concurrent use; backend calls run
// outside the holder's lock so snapshots stay readable while a request is
// in flight.
package state

import "errors"

// Status is the lifecycle of a holder's last load.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ErrUserNotInitialized is returned by operations that need a resolved
// user before one is available.
var ErrUserNotInitialized = errors.New("User not initialized")

// User-facing messages stored on failure.
const (
	msgLoadCategories  = "Failed to load categories"
	msgLoadProducts    = "Failed to load products"
	msgSearchProducts  = "Failed to search products"
	msgLoadProduct     = "Failed to load product"
	msgLoadFavorites   = "Failed to load favorites"
	msgAddFavorite     = "Failed to add to favorites"
	msgRemoveFavorite  = "Failed to remove from favorites"
	msgClearFavorites  = "Failed to clear favorites"
	msgInitializeUser  = "Failed to initialize user"
	msgUpdateUser      = "Failed to update user"
	msgFetchUserStats  = "Failed to fetch user stats"
	msgUpdateUserStats = "Failed to update user stats"
)
