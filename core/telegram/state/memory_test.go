package state

import (
	"context"
	"testing"
)

func TestMemoryManagerStateLifecycle(t *testing.T) {
	mgr := NewMemoryManager()
	ctx := context.Background()

	st, err := mgr.State(ctx, 1)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st != StateIdle {
		t.Fatalf("expected idle for unknown user, got %q", st)
	}

	if err := mgr.SetState(ctx, 1, State("ask_city")); err != nil {
		t.Fatalf("set state: %v", err)
	}
	st, _ = mgr.State(ctx, 1)
	if st != State("ask_city") {
		t.Fatalf("expected ask_city, got %q", st)
	}

	active, err := Active(ctx, mgr, 1)
	if err != nil || !active {
		t.Fatalf("expected active, got %v err %v", active, err)
	}

	if err := mgr.Clear(ctx, 1); err != nil {
		t.Fatalf("clear: %v", err)
	}
	st, _ = mgr.State(ctx, 1)
	if st != StateIdle {
		t.Fatalf("expected idle after clear, got %q", st)
	}
}

func TestMemoryManagerDataMerge(t *testing.T) {
	mgr := NewMemoryManager()
	ctx := context.Background()

	if err := mgr.UpdateData(ctx, 7, map[string]string{"city": "Moscow"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := mgr.UpdateData(ctx, 7, map[string]string{"style": "sport"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	data, err := mgr.Data(ctx, 7)
	if err != nil {
		t.Fatalf("data: %v", err)
	}
	if data["city"] != "Moscow" || data["style"] != "sport" {
		t.Fatalf("unexpected bag: %#v", data)
	}

	// Sessions are isolated per user.
	other, _ := mgr.Data(ctx, 8)
	if len(other) != 0 {
		t.Fatalf("expected empty bag for other user, got %#v", other)
	}
}
