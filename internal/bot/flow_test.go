package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	tg "stylebot/core/telegram"
	tghelpers "stylebot/core/telegram/helpers"
	"stylebot/core/telegram/middleware"
	"stylebot/core/telegram/state"
	"stylebot/internal/domain"
	"stylebot/internal/repository"
	"stylebot/internal/service"

	tele "gopkg.in/telebot.v4"
)

// fakeTeleCtx implements the small slice of tele.Context the flow touches.
// Calls to anything else panic via the embedded nil interface.
type fakeTeleCtx struct {
	tele.Context
	sender *tele.User
	chat   *tele.Chat
	text   string
	msg    *tele.Message
	store  map[string]any
	sent   []string
}

func newFakeCtx(userID int64) *fakeTeleCtx {
	return &fakeTeleCtx{
		sender: &tele.User{ID: userID, FirstName: "Kira", Username: "kira"},
		chat:   &tele.Chat{ID: userID},
	}
}

func (f *fakeTeleCtx) Sender() *tele.User     { return f.sender }
func (f *fakeTeleCtx) Chat() *tele.Chat       { return f.chat }
func (f *fakeTeleCtx) Update() tele.Update    { return tele.Update{ID: 1} }
func (f *fakeTeleCtx) Text() string           { return f.text }
func (f *fakeTeleCtx) Message() *tele.Message { return f.msg }

func (f *fakeTeleCtx) Get(key string) any { return f.store[key] }

func (f *fakeTeleCtx) Set(key string, val any) {
	if f.store == nil {
		f.store = map[string]any{}
	}
	f.store[key] = val
}

func (f *fakeTeleCtx) Send(what any, _ ...any) error {
	if s, ok := what.(string); ok {
		f.sent = append(f.sent, s)
	}
	return nil
}

func (f *fakeTeleCtx) Respond(_ ...*tele.CallbackResponse) error { return nil }

// In-memory stores backing the services under test.

type memUserStore struct {
	byTg       map[int64]*domain.User
	nextID     int64
	countCalls int
	bumpErr    error
}

func (m *memUserStore) ByTelegramID(_ context.Context, tgID int64) (*domain.User, error) {
	if u, ok := m.byTg[tgID]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memUserStore) Insert(_ context.Context, u *domain.User) error {
	if m.byTg == nil {
		m.byTg = map[int64]*domain.User{}
		m.nextID = 1
	}
	if _, ok := m.byTg[u.TelegramID]; ok {
		return &pq.Error{Code: "23505"}
	}
	u.ID = m.nextID
	m.nextID++
	m.byTg[u.TelegramID] = u
	return nil
}

func (m *memUserStore) IncrementActions(_ context.Context, userID int64) error {
	if m.bumpErr != nil {
		return m.bumpErr
	}
	for _, u := range m.byTg {
		if u.ID == userID {
			u.ActionCount++
		}
	}
	return nil
}

func (m *memUserStore) Count(_ context.Context) (int64, error) {
	m.countCalls++
	return int64(len(m.byTg)), nil
}

type memLocationStore struct {
	byUser map[int64]*domain.LocationProfile
}

func (m *memLocationStore) Upsert(_ context.Context, p *domain.LocationProfile) error {
	if m.byUser == nil {
		m.byUser = map[int64]*domain.LocationProfile{}
	}
	p.ID = int64(len(m.byUser) + 1)
	m.byUser[p.UserID] = p
	return nil
}

func (m *memLocationStore) ByUserID(_ context.Context, userID int64) (*domain.LocationProfile, error) {
	if p, ok := m.byUser[userID]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

type memPrefStore struct{ rows []*domain.Preference }

func (m *memPrefStore) Insert(_ context.Context, _ sqlx.ExtContext, p *domain.Preference) error {
	p.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, p)
	return nil
}

type memPhotoStore struct{ rows []*domain.Photo }

func (m *memPhotoStore) Insert(_ context.Context, ph *domain.Photo) error {
	ph.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, ph)
	return nil
}

func (m *memPhotoStore) Count(_ context.Context) (int64, error) { return int64(len(m.rows)), nil }

type memRecStore struct{ rows []*domain.Recommendation }

func (m *memRecStore) Insert(_ context.Context, _ sqlx.ExtContext, rec *domain.Recommendation) error {
	rec.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, rec)
	return nil
}

func (m *memRecStore) LastByUser(_ context.Context, userID int64, limit int) ([]domain.Recommendation, error) {
	var out []domain.Recommendation
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if m.rows[i].UserID == userID {
			out = append(out, *m.rows[i])
		}
	}
	return out, nil
}

func (m *memRecStore) Count(_ context.Context) (int64, error) { return int64(len(m.rows)), nil }

type noopTx struct{}

func (noopTx) RunInTx(_ context.Context, fn func(q sqlx.ExtContext) error) error { return fn(nil) }

type flowFixture struct {
	flow     *Flow
	sessions state.Manager
	users    *memUserStore
	locs     *memLocationStore
	prefs    *memPrefStore
	photos   *memPhotoStore
	recs     *memRecStore
}

func newFlowFixture() *flowFixture {
	users := &memUserStore{}
	locs := &memLocationStore{}
	prefs := &memPrefStore{}
	photos := &memPhotoStore{}
	recs := &memRecStore{}
	sessions := state.NewMemoryManager()

	usersSvc := service.NewUsers(users)
	stylistSvc := service.NewStylist(users, locs, prefs, photos, recs, noopTx{})
	return &flowFixture{
		flow:     NewFlow(sessions, usersSvc, stylistSvc),
		sessions: sessions,
		users:    users,
		locs:     locs,
		prefs:    prefs,
		photos:   photos,
		recs:     recs,
	}
}

func (fx *flowFixture) mustState(t *testing.T, tgID int64, want state.State) {
	t.Helper()
	u := fx.users.byTg[tgID]
	if u == nil {
		t.Fatal("user not registered")
	}
	st, err := fx.sessions.State(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st != want {
		t.Fatalf("state = %q, want %q", st, want)
	}
}

func TestStartRegistersAndPrompts(t *testing.T) {
	fx := newFlowFixture()
	c := newFakeCtx(100)

	if err := fx.flow.Start(c, "landing"); err != nil {
		t.Fatalf("start: %v", err)
	}
	fx.mustState(t, 100, StateOnboardingStart)
	if len(c.sent) != 1 || !strings.Contains(c.sent[0], "Style Assistant Bot") {
		t.Fatalf("sent = %q", c.sent)
	}
	u := fx.users.byTg[100]
	if !u.Source.Valid || u.Source.String != "landing" {
		t.Fatalf("source = %+v", u.Source)
	}
}

func TestManualCityPath(t *testing.T) {
	fx := newFlowFixture()
	c := newFakeCtx(100)

	if err := fx.flow.Start(c, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := fx.flow.dispatch(c, evBegin, ""); err != nil {
		t.Fatalf("begin: %v", err)
	}
	fx.mustState(t, 100, StateAskLocation)

	// Any text in ASK_LOCATION routes to manual city entry.
	c.text = ManualCityLabel
	if err := fx.flow.HandleText(c); err != nil {
		t.Fatalf("manual: %v", err)
	}
	fx.mustState(t, 100, StateAskCityManual)

	c.text = "Moscow"
	if err := fx.flow.HandleText(c); err != nil {
		t.Fatalf("city: %v", err)
	}
	fx.mustState(t, 100, StateAskEvent)

	u := fx.users.byTg[100]
	p := fx.locs.byUser[u.ID]
	if p == nil || !p.City.Valid || p.City.String != "Moscow" {
		t.Fatalf("profile = %+v", p)
	}
	if p.AllowLocation {
		t.Fatal("manual city entry must not record location consent")
	}
}

func TestPhotoWhileChoosingLocationRoutesToManualCity(t *testing.T) {
	fx := newFlowFixture()
	c := newFakeCtx(100)

	_ = fx.flow.Start(c, "")
	_ = fx.flow.dispatch(c, evBegin, "")
	fx.mustState(t, 100, StateAskLocation)

	// Any non-location message counts as declining to share coordinates.
	c.msg = &tele.Message{Photo: &tele.Photo{File: tele.File{FileID: "stray"}}}
	if err := fx.flow.HandlePhoto(c); err != nil {
		t.Fatalf("photo: %v", err)
	}
	fx.mustState(t, 100, StateAskCityManual)
	if c.sent[len(c.sent)-1] != ManualCityPromptText {
		t.Fatalf("last message = %q, want the manual city prompt", c.sent[len(c.sent)-1])
	}
	if len(fx.photos.rows) != 0 {
		t.Fatal("the stray photo must not be persisted")
	}
}

func TestEmptyCityReprompts(t *testing.T) {
	fx := newFlowFixture()
	c := newFakeCtx(100)

	_ = fx.flow.Start(c, "")
	_ = fx.flow.dispatch(c, evBegin, "")
	c.text = "anything"
	_ = fx.flow.HandleText(c)

	c.text = "   "
	if err := fx.flow.HandleText(c); err != nil {
		t.Fatalf("empty city: %v", err)
	}
	fx.mustState(t, 100, StateAskCityManual)
	if c.sent[len(c.sent)-1] != EmptyCityReprompt {
		t.Fatalf("last message = %q", c.sent[len(c.sent)-1])
	}
}

func TestLocationPathRecordsConsent(t *testing.T) {
	fx := newFlowFixture()
	c := newFakeCtx(100)

	_ = fx.flow.Start(c, "")
	_ = fx.flow.dispatch(c, evBegin, "")

	c.msg = &tele.Message{Location: &tele.Location{Lat: 55.75, Lng: 37.61}}
	if err := fx.flow.HandleLocation(c); err != nil {
		t.Fatalf("location: %v", err)
	}
	fx.mustState(t, 100, StateAskEvent)

	u := fx.users.byTg[100]
	p := fx.locs.byUser[u.ID]
	if p == nil || !p.AllowLocation || !p.Lat.Valid {
		t.Fatalf("profile = %+v", p)
	}
	if p.City.Valid {
		t.Fatalf("city should be unset, got %q", p.City.String)
	}
}

func TestSkipPhotoProducesOneRecommendationAndTwoMessages(t *testing.T) {
	fx := newFlowFixture()
	c := newFakeCtx(100)

	_ = fx.flow.Start(c, "")
	_ = fx.flow.dispatch(c, evBegin, "")
	c.text = "Moscow"
	_ = fx.flow.HandleText(c) // to manual city
	_ = fx.flow.HandleText(c) // city
	_ = fx.flow.dispatch(c, evEvent, "casual_day")
	_ = fx.flow.dispatch(c, evStyle, "classic")
	fx.mustState(t, 100, StateAskPhoto)

	before := len(c.sent)
	if err := fx.flow.dispatch(c, evSkipPhoto, ""); err != nil {
		t.Fatalf("skip: %v", err)
	}
	fx.mustState(t, 100, StateAskShops)

	if got := len(c.sent) - before; got != 2 {
		t.Fatalf("messages after skip = %d, want 2 (recommendation, shops prompt)", got)
	}
	if len(fx.recs.rows) != 1 {
		t.Fatalf("recommendations = %d, want 1", len(fx.recs.rows))
	}
	rec := fx.recs.rows[0]
	if !rec.PreferenceID.Valid || rec.PreferenceID.Int64 != fx.prefs.rows[0].ID {
		t.Fatalf("recommendation not linked to preference: %+v", rec.PreferenceID)
	}
	if rec.MessageText != c.sent[before] {
		t.Fatal("stored text must match the sent recommendation message")
	}
	if !strings.Contains(c.sent[before], "1)") {
		t.Fatalf("recommendation message = %q", c.sent[before])
	}
}

func TestPhotoPathPersistsPhoto(t *testing.T) {
	fx := newFlowFixture()
	c := newFakeCtx(100)

	_ = fx.flow.Start(c, "")
	_ = fx.flow.dispatch(c, evBegin, "")
	c.text = "Moscow"
	_ = fx.flow.HandleText(c)
	_ = fx.flow.HandleText(c)
	_ = fx.flow.dispatch(c, evEvent, "event")
	_ = fx.flow.dispatch(c, evStyle, "sport")

	c.msg = &tele.Message{Photo: &tele.Photo{File: tele.File{FileID: "file-77"}}}
	if err := fx.flow.HandlePhoto(c); err != nil {
		t.Fatalf("photo: %v", err)
	}
	fx.mustState(t, 100, StateAskShops)
	if len(fx.photos.rows) != 1 || fx.photos.rows[0].TgFileID != "file-77" {
		t.Fatalf("photos = %+v", fx.photos.rows)
	}
}

func TestShopsAnswersEndConversation(t *testing.T) {
	for _, tc := range []struct {
		answer string
		expect string
	}{
		{"yes", "Style Point"},
		{"no", ClosingText},
	} {
		fx := newFlowFixture()
		c := newFakeCtx(100)

		_ = fx.flow.Start(c, "")
		_ = fx.flow.dispatch(c, evBegin, "")
		c.text = "Moscow"
		_ = fx.flow.HandleText(c)
		_ = fx.flow.HandleText(c)
		_ = fx.flow.dispatch(c, evEvent, "casual_day")
		_ = fx.flow.dispatch(c, evStyle, "casual")
		_ = fx.flow.dispatch(c, evSkipPhoto, "")

		if err := fx.flow.dispatch(c, evShops, tc.answer); err != nil {
			t.Fatalf("%s: %v", tc.answer, err)
		}
		last := c.sent[len(c.sent)-1]
		if !strings.Contains(last, tc.expect) {
			t.Fatalf("%s: last message = %q", tc.answer, last)
		}
		fx.mustState(t, 100, state.StateIdle)

		u := fx.users.byTg[100]
		data, err := fx.sessions.Data(context.Background(), u.ID)
		if err != nil {
			t.Fatalf("data: %v", err)
		}
		if len(data) != 0 {
			t.Fatalf("attributes not cleared: %+v", data)
		}
	}
}

func TestUnmatchedInputReprompts(t *testing.T) {
	fx := newFlowFixture()
	c := newFakeCtx(100)

	_ = fx.flow.Start(c, "")
	_ = fx.flow.dispatch(c, evBegin, "")
	c.text = "Moscow"
	_ = fx.flow.HandleText(c)
	_ = fx.flow.HandleText(c)

	// A photo while the bot expects an event choice must not advance.
	c.msg = &tele.Message{Photo: &tele.Photo{File: tele.File{FileID: "early"}}}
	if err := fx.flow.HandlePhoto(c); err != nil {
		t.Fatalf("photo: %v", err)
	}
	fx.mustState(t, 100, StateAskEvent)
	if c.sent[len(c.sent)-1] != EventReprompt {
		t.Fatalf("last message = %q", c.sent[len(c.sent)-1])
	}
	if len(fx.photos.rows) != 0 {
		t.Fatal("out-of-state photo must not be persisted")
	}
}

func TestAdminGateNeverQueriesCounts(t *testing.T) {
	fx := newFlowFixture()
	reg := tg.NewRegistry()
	Register(reg, fx.flow)

	_, cmd, ok := reg.LookupCommand("/admin_logs")
	if !ok {
		t.Fatal("admin_logs not registered")
	}
	gated := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		Admins: []int64{999},
		OnReject: func(c tele.Context) error {
			return tghelpers.SendText(c, AccessDeniedText)
		},
	})(cmd.Handler)

	c := newFakeCtx(100)
	if err := gated(c); err != nil {
		t.Fatalf("gated handler: %v", err)
	}
	if len(c.sent) != 1 || c.sent[0] != AccessDeniedText {
		t.Fatalf("sent = %q, want only the denial text", c.sent)
	}
	if fx.users.countCalls != 0 {
		t.Fatalf("aggregate counts queried %d times for a denied caller", fx.users.countCalls)
	}

	admin := newFakeCtx(999)
	if err := gated(admin); err != nil {
		t.Fatalf("admin handler: %v", err)
	}
	if len(admin.sent) != 1 || !strings.Contains(admin.sent[0], "Users:") {
		t.Fatalf("admin report = %q", admin.sent)
	}
}

func TestActionCounterFailureDoesNotAbortDialogue(t *testing.T) {
	fx := newFlowFixture()
	c := newFakeCtx(100)

	_ = fx.flow.Start(c, "")
	fx.users.bumpErr = errors.New("counter unavailable")

	if err := fx.flow.dispatch(c, evBegin, ""); err != nil {
		t.Fatalf("begin: %v", err)
	}
	fx.mustState(t, 100, StateAskLocation)
}

func TestActiveDoesNotRegisterUnknownSender(t *testing.T) {
	fx := newFlowFixture()

	active, err := fx.flow.Active(context.Background(), 100)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active {
		t.Fatal("unknown sender reported as active")
	}
	if len(fx.users.byTg) != 0 {
		t.Fatalf("activity check created %d user rows", len(fx.users.byTg))
	}

	// The first real handler registers the sender with name and username.
	c := newFakeCtx(100)
	if err := fx.flow.Start(c, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	u := fx.users.byTg[100]
	if u == nil || u.Fullname != "Kira" || u.Username != "kira" {
		t.Fatalf("user = %+v", u)
	}

	active, err = fx.flow.Active(context.Background(), 100)
	if err != nil || !active {
		t.Fatalf("active after start = %v err %v", active, err)
	}
}

func TestStartRestartsMidConversation(t *testing.T) {
	fx := newFlowFixture()
	c := newFakeCtx(100)

	_ = fx.flow.Start(c, "")
	_ = fx.flow.dispatch(c, evBegin, "")
	c.text = "Moscow"
	_ = fx.flow.HandleText(c)
	_ = fx.flow.HandleText(c)

	if err := fx.flow.Start(c, ""); err != nil {
		t.Fatalf("restart: %v", err)
	}
	fx.mustState(t, 100, StateOnboardingStart)

	u := fx.users.byTg[100]
	data, _ := fx.sessions.Data(context.Background(), u.ID)
	if len(data) != 0 {
		t.Fatalf("attributes survived restart: %+v", data)
	}
}
