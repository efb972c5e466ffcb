package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"stylebot/core/logger"
	"stylebot/internal/domain"
	"stylebot/internal/stylist"
)

// LocationStore persists per-user location profiles.
type LocationStore interface {
	Upsert(ctx context.Context, p *domain.LocationProfile) error
	ByUserID(ctx context.Context, userID int64) (*domain.LocationProfile, error)
}

// PreferenceStore persists dialogue answers.
type PreferenceStore interface {
	Insert(ctx context.Context, q sqlx.ExtContext, p *domain.Preference) error
}

// PhotoStore persists photo references.
type PhotoStore interface {
	Insert(ctx context.Context, ph *domain.Photo) error
	Count(ctx context.Context) (int64, error)
}

// RecommendationStore persists generated recommendations.
type RecommendationStore interface {
	Insert(ctx context.Context, q sqlx.ExtContext, rec *domain.Recommendation) error
	LastByUser(ctx context.Context, userID int64, limit int) ([]domain.Recommendation, error)
	Count(ctx context.Context) (int64, error)
}

// Transactor runs a unit of work in one database transaction.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(q sqlx.ExtContext) error) error
}

// Answers carries the dialogue outcome collected by the conversation flow.
type Answers struct {
	EventType  string
	Style      string
	SeasonBias string
	City       string
	Lat        *float64
	Lon        *float64
}

// Metrics is an aggregate snapshot for the admin report.
type Metrics struct {
	Users           int64
	Recommendations int64
	Photos          int64
}

// Stylist owns the persistence side of the recommendation flow. Weather and
// outfit derivation live in the stylist package; this service records the
// answers and the resulting recommendation.
type Stylist struct {
	users     UserStore
	locations LocationStore
	prefs     PreferenceStore
	photos    PhotoStore
	recs      RecommendationStore
	tx        Transactor
}

func NewStylist(users UserStore, locations LocationStore, prefs PreferenceStore, photos PhotoStore, recs RecommendationStore, tx Transactor) *Stylist {
	return &Stylist{
		users:     users,
		locations: locations,
		prefs:     prefs,
		photos:    photos,
		recs:      recs,
		tx:        tx,
	}
}

// SaveLocation upserts the user's location profile. Either coordinates or a
// city name may be present; allow records the sharing consent.
func (s *Stylist) SaveLocation(ctx context.Context, userID int64, city string, lat, lon *float64, allow bool) error {
	p := &domain.LocationProfile{
		UserID:        userID,
		City:          nullString(city),
		Lat:           nullFloat(lat),
		Lon:           nullFloat(lon),
		AllowLocation: allow,
	}
	if err := s.locations.Upsert(ctx, p); err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.SVCStylist, slog.LevelInfo, "location.saved",
		slog.Int64("user_id", userID),
		slog.String("city", logger.SanitizeLimit(city, 64)),
	)
	return nil
}

// Location returns the stored profile, or nil when the user has none yet.
func (s *Stylist) Location(ctx context.Context, userID int64) (*domain.LocationProfile, error) {
	return s.locations.ByUserID(ctx, userID)
}

// SavePhoto records a Telegram photo reference for the user.
func (s *Stylist) SavePhoto(ctx context.Context, userID int64, fileID string) error {
	return s.photos.Insert(ctx, &domain.Photo{UserID: userID, TgFileID: fileID})
}

// SaveRecommendation records the completed dialogue in one transaction: the
// preference row and the recommendation row linked to it are committed
// together, or not at all. The recommendation text is the exact message the
// user receives; callers send it only after this returns nil.
func (s *Stylist) SaveRecommendation(ctx context.Context, userID int64, a Answers, weather stylist.Weather, text string) (*domain.Recommendation, error) {
	pref := &domain.Preference{
		UserID:     userID,
		EventType:  a.EventType,
		Style:      a.Style,
		SeasonBias: nullString(a.SeasonBias),
	}
	rec := &domain.Recommendation{
		UserID:         userID,
		MessageText:    text,
		WeatherSummary: weather.Summary,
	}
	err := s.tx.RunInTx(ctx, func(q sqlx.ExtContext) error {
		if err := s.prefs.Insert(ctx, q, pref); err != nil {
			return err
		}
		rec.PreferenceID = sql.NullInt64{Int64: pref.ID, Valid: true}
		return s.recs.Insert(ctx, q, rec)
	})
	if err != nil {
		return nil, err
	}
	logger.LogEvent(ctx, logger.SVCStylist, slog.LevelInfo, "recommendation.saved",
		slog.Int64("user_id", userID),
		slog.Int64("preference_id", pref.ID),
		slog.Int64("recommendation_id", rec.ID),
		slog.String("event_type", a.EventType),
		slog.String("style", a.Style),
	)
	return rec, nil
}

// History returns the user's most recent recommendations, newest first.
func (s *Stylist) History(ctx context.Context, userID int64, limit int) ([]domain.Recommendation, error) {
	return s.recs.LastByUser(ctx, userID, limit)
}

// AdminMetrics aggregates the counters shown by the admin report.
func (s *Stylist) AdminMetrics(ctx context.Context) (Metrics, error) {
	var m Metrics
	var err error
	if m.Users, err = s.users.Count(ctx); err != nil {
		return Metrics{}, err
	}
	if m.Recommendations, err = s.recs.Count(ctx); err != nil {
		return Metrics{}, err
	}
	if m.Photos, err = s.photos.Count(ctx); err != nil {
		return Metrics{}, err
	}
	return m, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
