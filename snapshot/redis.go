package snapshot

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"hanamikoji-server/game"
)

const keyPrefix = "hanamikoji:room:"

// RedisStore persists room snapshots as gob-encoded blobs in Redis, namespaced
// under hanamikoji:room:<roomId> with a per-save TTL so abandoned rooms
// expire on their own.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to redisURL and verifies the connection with a
// PING. If redisURL is empty, NewRedisStore returns (nil, nil) and callers
// should treat a nil Store as "persistence disabled".
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	if redisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("snapshot: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("snapshot: ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func roomKey(roomID string) string {
	return keyPrefix + roomID
}

// SaveRoom writes an already-encoded snapshot (see Encode) with the given
// TTL, overwriting any prior snapshot for the room. Takes raw bytes rather
// than *game.State so the caller can encode on its own goroutine and leave
// this call — the network round-trip — safe to run on a spawned one without
// ever touching live state again.
func (s *RedisStore) SaveRoom(ctx context.Context, roomID string, data []byte, ttl time.Duration) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Set(ctx, roomKey(roomID), data, ttl).Err()
}

// LoadRoom returns the stored snapshot for roomID, or (nil, nil) if none
// exists (expired or never saved).
func (s *RedisStore) LoadRoom(ctx context.Context, roomID string) (*game.State, error) {
	if s == nil || s.client == nil {
		return nil, nil
	}
	data, err := s.client.Get(ctx, roomKey(roomID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot: get: %w", err)
	}
	var state game.State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return nil, fmt.Errorf("snapshot: decode state: %w", err)
	}
	return &state, nil
}

// DeleteRoom removes a room's snapshot, e.g. once a room is garbage
// collected by the registry's janitor.
func (s *RedisStore) DeleteRoom(ctx context.Context, roomID string) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Del(ctx, roomKey(roomID)).Err()
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
