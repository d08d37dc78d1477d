// Package snapshot persists a room's in-progress game.State so a restart or
// pod rescheduling doesn't lose a match in flight. Persistence is
// best-effort: a failed save is logged by the caller and otherwise ignored,
// never blocking a room's serialized loop.
package snapshot

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"time"

	"hanamikoji-server/game"
)

// Store abstracts snapshot persistence so rooms can be tested without a
// live Redis instance. Implementations can be swapped for a mock in tests.
//
// SaveRoom takes already-encoded bytes rather than a *game.State so the
// caller can do the (fast, in-memory) encoding on its own goroutine before
// handing the (slow, network) write off to a spawned one — the room's
// single-writer loop keeps sole access to live state throughout.
type Store interface {
	SaveRoom(ctx context.Context, roomID string, data []byte, ttl time.Duration) error
	LoadRoom(ctx context.Context, roomID string) (*game.State, error)
	DeleteRoom(ctx context.Context, roomID string) error
	Close() error
}

// Encode gob-encodes state for SaveRoom. gob, not JSON: State's json tags
// exist to mask hidden piles from clients, and reusing them here would
// silently drop the draw pile and removed card a resumed game needs.
func Encode(state *game.State) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, fmt.Errorf("snapshot: encode state: %w", err)
	}
	return buf.Bytes(), nil
}
