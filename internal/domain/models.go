// Package domain defines the persistent entities of the style assistant.
package domain

import (
	"database/sql"
	"time"
)

// User is the internal identity behind a Telegram account. Exactly one row
// exists per tg_id; the unique constraint on tg_id is the source of truth.
type User struct {
	ID          int64          `db:"id"`
	CreatedAt   time.Time      `db:"created_at"`
	TelegramID  int64          `db:"tg_id"`
	Fullname    string         `db:"fullname"`
	Username    string         `db:"username"`
	ActionCount int            `db:"action_count"`
	Space       sql.NullString `db:"space"`
	Geography   sql.NullString `db:"geography"`
	Request     sql.NullString `db:"request"`
	Source      sql.NullString `db:"source"`
}

// LocationProfile is the single per-user location row, overwritten on every
// location-setting event.
type LocationProfile struct {
	ID            int64           `db:"id"`
	CreatedAt     time.Time       `db:"created_at"`
	UserID        int64           `db:"user_id"`
	City          sql.NullString  `db:"city"`
	Lat           sql.NullFloat64 `db:"lat"`
	Lon           sql.NullFloat64 `db:"lon"`
	AllowLocation bool            `db:"allow_location"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// Preference is an append-only record of one completed event/style selection.
type Preference struct {
	ID         int64          `db:"id"`
	CreatedAt  time.Time      `db:"created_at"`
	UserID     int64          `db:"user_id"`
	EventType  string         `db:"event_type"`
	Style      string         `db:"style"`
	SeasonBias sql.NullString `db:"season_bias"`
}

// Photo references a Telegram file uploaded during the flow.
type Photo struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UserID    int64     `db:"user_id"`
	TgFileID  string    `db:"tg_file_id"`
}

// Recommendation stores a generated outfit text. PreferenceID is nullable:
// deleting a preference must not cascade here, only null the link.
type Recommendation struct {
	ID             int64         `db:"id"`
	CreatedAt      time.Time     `db:"created_at"`
	UserID         int64         `db:"user_id"`
	PreferenceID   sql.NullInt64 `db:"preference_id"`
	WeatherSummary string        `db:"weather_summary"`
	MessageText    string        `db:"message_text"`
}
