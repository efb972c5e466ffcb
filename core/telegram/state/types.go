// Package state persists per-user conversation state and attributes for
// Telegram bots. The backing store is external (Redis in production), so
// every operation takes a context and may fail; an in-memory manager is
// provided for tests and development.
package state

import "context"

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Manager stores the current dialogue state and the accumulated attribute
// bag for each user. Attributes are plain strings; callers encode numeric
// values themselves.
type Manager interface {
	// State returns the current state, or StateIdle when none is set.
	State(ctx context.Context, userID int64) (State, error)
	// SetState replaces the current state.
	SetState(ctx context.Context, userID int64, st State) error
	// Data returns a copy of the attribute bag. Missing keys are absent.
	Data(ctx context.Context, userID int64) (map[string]string, error)
	// UpdateData merges the patch into the attribute bag. Existing keys not
	// present in the patch are kept.
	UpdateData(ctx context.Context, userID int64, patch map[string]string) error
	// Clear drops both the state and the attribute bag.
	Clear(ctx context.Context, userID int64) error
}

// Active reports whether the user has a state other than idle.
func Active(ctx context.Context, mgr Manager, userID int64) (bool, error) {
	st, err := mgr.State(ctx, userID)
	if err != nil {
		return false, err
	}
	return st != StateIdle, nil
}
