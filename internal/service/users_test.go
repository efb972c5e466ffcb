package service

import (
	"context"
	"errors"
	"testing"

	"github.com/lib/pq"

	"stylebot/internal/domain"
	"stylebot/internal/repository"
)

type fakeUserStore struct {
	byID    map[int64]*domain.User
	nextID  int64
	inserts int

	// insertHook runs before each Insert and may return an error to inject
	// conflicts; it may also mutate byID to simulate a concurrent winner.
	insertHook func(n int) error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: map[int64]*domain.User{}, nextID: 1}
}

func (f *fakeUserStore) ByTelegramID(_ context.Context, tgID int64) (*domain.User, error) {
	if u, ok := f.byID[tgID]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserStore) Insert(_ context.Context, u *domain.User) error {
	f.inserts++
	if f.insertHook != nil {
		if err := f.insertHook(f.inserts); err != nil {
			return err
		}
	}
	if _, ok := f.byID[u.TelegramID]; ok {
		return &pq.Error{Code: "23505"}
	}
	u.ID = f.nextID
	f.nextID++
	f.byID[u.TelegramID] = u
	return nil
}

func (f *fakeUserStore) IncrementActions(_ context.Context, userID int64) error {
	for _, u := range f.byID {
		if u.ID == userID {
			u.ActionCount++
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeUserStore) Count(_ context.Context) (int64, error) {
	return int64(len(f.byID)), nil
}

func TestResolveOrCreateFirstContact(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUsers(store)

	u, err := svc.ResolveOrCreate(context.Background(), 100, "Kira Verne", "kira", "landing")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if !u.Source.Valid || u.Source.String != "landing" {
		t.Fatalf("source = %+v, want landing", u.Source)
	}
	if store.inserts != 1 {
		t.Fatalf("inserts = %d, want 1", store.inserts)
	}
}

func TestResolveOrCreateIdempotent(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUsers(store)

	first, err := svc.ResolveOrCreate(context.Background(), 100, "Kira Verne", "kira", "")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := svc.ResolveOrCreate(context.Background(), 100, "Kira Verne", "kira", "")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("ids diverged: %d vs %d", first.ID, second.ID)
	}
	if store.inserts != 1 {
		t.Fatalf("inserts = %d, want 1", store.inserts)
	}
}

func TestResolveOrCreateConvergesAfterRace(t *testing.T) {
	store := newFakeUserStore()
	// The first insert loses a race: a concurrent handler commits the row
	// between our lookup and our insert.
	store.insertHook = func(n int) error {
		if n == 1 {
			store.byID[100] = &domain.User{ID: 7, TelegramID: 100, Fullname: "Kira Verne"}
			return &pq.Error{Code: "23505"}
		}
		return nil
	}
	svc := NewUsers(store)

	u, err := svc.ResolveOrCreate(context.Background(), 100, "Kira Verne", "kira", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if u.ID != 7 {
		t.Fatalf("id = %d, want the winner's row 7", u.ID)
	}
}

func TestResolveOrCreateExhaustsAttempts(t *testing.T) {
	store := newFakeUserStore()
	store.insertHook = func(int) error {
		return &pq.Error{Code: "23505"}
	}
	svc := NewUsers(store)

	_, err := svc.ResolveOrCreate(context.Background(), 100, "Kira Verne", "kira", "")
	if !errors.Is(err, ErrUnresolvedUser) {
		t.Fatalf("err = %v, want ErrUnresolvedUser", err)
	}
	if store.inserts != resolveAttempts {
		t.Fatalf("inserts = %d, want %d", store.inserts, resolveAttempts)
	}
}

func TestResolveOrCreateSurfacesStorageErrors(t *testing.T) {
	store := newFakeUserStore()
	boom := errors.New("connection reset")
	store.insertHook = func(int) error { return boom }
	svc := NewUsers(store)

	_, err := svc.ResolveOrCreate(context.Background(), 100, "Kira Verne", "kira", "")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the storage error", err)
	}
	if store.inserts != 1 {
		t.Fatalf("inserts = %d, want 1 (no retry on non-conflict errors)", store.inserts)
	}
}
