package user

import (
	"time"
)

const (
	TableUsers     = "users"
	TableUserStats = "user_stats"

	// DefaultLanguage is stored when Telegram does not report one.
	DefaultLanguage = "ru"
	// StarterLevel is the level of a freshly created user.
	StarterLevel = "Новичок"
)

// User is a Mini-App user, created on first Telegram login.
type User struct {
	ID           int64     `gorm:"primaryKey" json:"id,omitempty"`
	TelegramID   int64     `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Username     string    `gorm:"type:varchar(255)" json:"username"`
	FirstName    string    `gorm:"type:varchar(255)" json:"first_name"`
	LastName     string    `gorm:"type:varchar(255)" json:"last_name"`
	PhotoURL     string    `json:"photo_url"`
	LanguageCode string    `gorm:"type:varchar(16);default:ru" json:"language_code"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return TableUsers
}

// Stats are the per-user counters shown on the profile screen.
type Stats struct {
	ID           int64  `gorm:"primaryKey" json:"id,omitempty"`
	UserID       int64  `gorm:"uniqueIndex;not null" json:"user_id"`
	TotalItems   int    `json:"total_items"`
	TotalViews   int    `json:"total_views"`
	TotalLikes   int    `json:"total_likes"`
	TotalReviews int    `json:"total_reviews"`
	Points       int    `json:"points"`
	Level        string `json:"level"`
}

func (Stats) TableName() string {
	return TableUserStats
}

// Update lists the profile fields to change; nil fields are left alone.
type Update struct {
	FirstName    *string
	LastName     *string
	Username     *string
	PhotoURL     *string
	LanguageCode *string
}

func (u Update) values() map[string]interface{} {
	values := make(map[string]interface{})
	set := func(column string, v *string) {
		if v != nil {
			values[column] = *v
		}
	}
	set("first_name", u.FirstName)
	set("last_name", u.LastName)
	set("username", u.Username)
	set("photo_url", u.PhotoURL)
	set("language_code", u.LanguageCode)
	return values
}

// StatsUpdate lists the counters to change; nil fields are left alone.
type StatsUpdate struct {
	TotalItems   *int
	TotalViews   *int
	TotalLikes   *int
	TotalReviews *int
	Points       *int
	Level        *string
}

func (u StatsUpdate) values() map[string]interface{} {
	values := make(map[string]interface{})
	setInt := func(column string, v *int) {
		if v != nil {
			values[column] = *v
		}
	}
	setInt("total_items", u.TotalItems)
	setInt("total_views", u.TotalViews)
	setInt("total_likes", u.TotalLikes)
	setInt("total_reviews", u.TotalReviews)
	setInt("points", u.Points)
	if u.Level != nil {
		values["level"] = *u.Level
	}
	return values
}
