package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis-backed session manager.
type RedisOptions struct {
	Addr     string
	Username string
	Password string
	DB       int
	// Prefix namespaces all keys; defaults to "fsm".
	Prefix string
	// TTL expires parked conversations; zero keeps them until cleared.
	TTL time.Duration
}

type redisManager struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisManager connects to Redis and returns a Manager persisting sessions there.
func NewRedisManager(ctx context.Context, opts RedisOptions) (Manager, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("state: redis addr is required")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "fsm"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Username:    opts.Username,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("state: redis ping: %w", err)
	}

	return &redisManager{rdb: rdb, prefix: prefix, ttl: opts.TTL}, nil
}

func (m *redisManager) stateKey(userID int64) string {
	return fmt.Sprintf("%s:state:%d", m.prefix, userID)
}

func (m *redisManager) dataKey(userID int64) string {
	return fmt.Sprintf("%s:data:%d", m.prefix, userID)
}

// State returns the stored state, or StateIdle when the key is absent.
func (m *redisManager) State(ctx context.Context, userID int64) (State, error) {
	val, err := m.rdb.Get(ctx, m.stateKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return StateIdle, nil
	}
	if err != nil {
		return StateIdle, fmt.Errorf("state: get %d: %w", userID, err)
	}
	return State(val), nil
}

func (m *redisManager) SetState(ctx context.Context, userID int64, st State) error {
	if err := m.rdb.Set(ctx, m.stateKey(userID), string(st), m.ttl).Err(); err != nil {
		return fmt.Errorf("state: set %d: %w", userID, err)
	}
	return nil
}

func (m *redisManager) Data(ctx context.Context, userID int64) (map[string]string, error) {
	data, err := m.rdb.HGetAll(ctx, m.dataKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("state: data %d: %w", userID, err)
	}
	return data, nil
}

func (m *redisManager) UpdateData(ctx context.Context, userID int64, patch map[string]string) error {
	if len(patch) == 0 {
		return nil
	}
	key := m.dataKey(userID)
	flat := make([]any, 0, len(patch)*2)
	for k, v := range patch {
		flat = append(flat, k, v)
	}
	if err := m.rdb.HSet(ctx, key, flat...).Err(); err != nil {
		return fmt.Errorf("state: update data %d: %w", userID, err)
	}
	if m.ttl > 0 {
		if err := m.rdb.Expire(ctx, key, m.ttl).Err(); err != nil {
			return fmt.Errorf("state: expire data %d: %w", userID, err)
		}
	}
	return nil
}

func (m *redisManager) Clear(ctx context.Context, userID int64) error {
	if err := m.rdb.Del(ctx, m.stateKey(userID), m.dataKey(userID)).Err(); err != nil {
		return fmt.Errorf("state: clear %d: %w", userID, err)
	}
	return nil
}

// Close releases the underlying Redis connection when the manager owns one.
func Close(mgr Manager) error {
	if rm, ok := mgr.(*redisManager); ok {
		return rm.rdb.Close()
	}
	return nil
}
