package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	"stylebot/internal/domain"
	"stylebot/internal/repository"
	"stylebot/internal/stylist"
)

type fakeLocationStore struct {
	byUser map[int64]*domain.LocationProfile
}

func (f *fakeLocationStore) Upsert(_ context.Context, p *domain.LocationProfile) error {
	if f.byUser == nil {
		f.byUser = map[int64]*domain.LocationProfile{}
	}
	p.ID = int64(len(f.byUser) + 1)
	f.byUser[p.UserID] = p
	return nil
}

func (f *fakeLocationStore) ByUserID(_ context.Context, userID int64) (*domain.LocationProfile, error) {
	if p, ok := f.byUser[userID]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

type fakePrefStore struct {
	rows []*domain.Preference
	err  error
}

func (f *fakePrefStore) Insert(_ context.Context, _ sqlx.ExtContext, p *domain.Preference) error {
	if f.err != nil {
		return f.err
	}
	p.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, p)
	return nil
}

type fakePhotoStore struct {
	rows []*domain.Photo
}

func (f *fakePhotoStore) Insert(_ context.Context, ph *domain.Photo) error {
	ph.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, ph)
	return nil
}

func (f *fakePhotoStore) Count(_ context.Context) (int64, error) {
	return int64(len(f.rows)), nil
}

type fakeRecStore struct {
	rows []*domain.Recommendation
	err  error
}

func (f *fakeRecStore) Insert(_ context.Context, _ sqlx.ExtContext, rec *domain.Recommendation) error {
	if f.err != nil {
		return f.err
	}
	rec.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, rec)
	return nil
}

func (f *fakeRecStore) LastByUser(_ context.Context, userID int64, limit int) ([]domain.Recommendation, error) {
	var out []domain.Recommendation
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if f.rows[i].UserID == userID {
			out = append(out, *f.rows[i])
		}
	}
	return out, nil
}

func (f *fakeRecStore) Count(_ context.Context) (int64, error) {
	return int64(len(f.rows)), nil
}

// fakeTx mimics transactional semantics for the fakes: when fn fails, rows
// written by earlier steps of the unit of work are discarded.
type fakeTx struct {
	prefs *fakePrefStore
	recs  *fakeRecStore
}

func (f *fakeTx) RunInTx(_ context.Context, fn func(q sqlx.ExtContext) error) error {
	prefsBefore := len(f.prefs.rows)
	recsBefore := len(f.recs.rows)
	if err := fn(nil); err != nil {
		f.prefs.rows = f.prefs.rows[:prefsBefore]
		f.recs.rows = f.recs.rows[:recsBefore]
		return err
	}
	return nil
}

func newStylistFixture() (*Stylist, *fakeLocationStore, *fakePrefStore, *fakePhotoStore, *fakeRecStore) {
	users := newFakeUserStore()
	locs := &fakeLocationStore{}
	prefs := &fakePrefStore{}
	photos := &fakePhotoStore{}
	recs := &fakeRecStore{}
	svc := NewStylist(users, locs, prefs, photos, recs, &fakeTx{prefs: prefs, recs: recs})
	return svc, locs, prefs, photos, recs
}

func TestSaveRecommendationLinksPreference(t *testing.T) {
	svc, _, prefs, _, recs := newStylistFixture()

	w := stylist.Weather{Summary: "It is about 20°C right now.", TemperatureC: 20}
	rec, err := svc.SaveRecommendation(context.Background(), 5, Answers{
		EventType: stylist.EventOccasion,
		Style:     stylist.StyleClassic,
	}, w, "1) trousers or a skirt")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(prefs.rows) != 1 || len(recs.rows) != 1 {
		t.Fatalf("rows = %d prefs, %d recs, want 1 each", len(prefs.rows), len(recs.rows))
	}
	if !rec.PreferenceID.Valid || rec.PreferenceID.Int64 != prefs.rows[0].ID {
		t.Fatalf("preference link = %+v, want %d", rec.PreferenceID, prefs.rows[0].ID)
	}
	if rec.WeatherSummary != w.Summary {
		t.Fatalf("weather summary = %q, want %q", rec.WeatherSummary, w.Summary)
	}
	if rec.MessageText != "1) trousers or a skirt" {
		t.Fatalf("message text = %q", rec.MessageText)
	}
}

func TestSaveRecommendationRollsBackTogether(t *testing.T) {
	svc, _, prefs, _, recs := newStylistFixture()
	recs.err = errors.New("disk full")

	_, err := svc.SaveRecommendation(context.Background(), 5, Answers{
		EventType: stylist.EventCasualDay,
		Style:     stylist.StyleCasual,
	}, stylist.Weather{TemperatureC: 14}, "text")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(prefs.rows) != 0 {
		t.Fatalf("preference survived a failed transaction: %d rows", len(prefs.rows))
	}
}

func TestSaveLocationRoundTrip(t *testing.T) {
	svc, locs, _, _, _ := newStylistFixture()

	lat, lon := 55.75, 37.61
	if err := svc.SaveLocation(context.Background(), 5, "", &lat, &lon, true); err != nil {
		t.Fatalf("save: %v", err)
	}
	p, err := svc.Location(context.Background(), 5)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !p.AllowLocation || !p.Lat.Valid || p.Lat.Float64 != lat {
		t.Fatalf("profile = %+v", p)
	}
	if p.City.Valid {
		t.Fatalf("city should be empty, got %q", p.City.String)
	}
	_ = locs
}

func TestHistoryNewestFirst(t *testing.T) {
	svc, _, _, _, _ := newStylistFixture()

	for _, text := range []string{"first", "second", "third"} {
		_, err := svc.SaveRecommendation(context.Background(), 5, Answers{
			EventType: stylist.EventCasualDay,
			Style:     stylist.StyleCasual,
		}, stylist.Weather{TemperatureC: 14}, text)
		if err != nil {
			t.Fatalf("save %q: %v", text, err)
		}
	}
	hist, err := svc.History(context.Background(), 5, 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("len = %d, want 2", len(hist))
	}
	if hist[0].MessageText != "third" || hist[1].MessageText != "second" {
		t.Fatalf("order = %q, %q; want newest first", hist[0].MessageText, hist[1].MessageText)
	}
}

func TestAdminMetrics(t *testing.T) {
	svc, _, _, photos, _ := newStylistFixture()

	if err := svc.SavePhoto(context.Background(), 5, "file-1"); err != nil {
		t.Fatalf("photo: %v", err)
	}
	if _, err := svc.SaveRecommendation(context.Background(), 5, Answers{
		EventType: stylist.EventCasualDay,
		Style:     stylist.StyleSport,
	}, stylist.Weather{TemperatureC: 3}, "text"); err != nil {
		t.Fatalf("rec: %v", err)
	}

	m, err := svc.AdminMetrics(context.Background())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if m.Photos != 1 || m.Recommendations != 1 || m.Users != 0 {
		t.Fatalf("metrics = %+v", m)
	}
	_ = photos
}
