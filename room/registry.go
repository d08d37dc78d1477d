package room

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"hanamikoji-server/config"
	"hanamikoji-server/roomerrors"
	"hanamikoji-server/snapshot"
)

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const roomCodeLength = 6

// Registry owns every live Room in the process, grounded on the teacher's
// matchmaker's map-plus-mutex bookkeeping but addressed by room code
// instead of a match queue.
type Registry struct {
	cfg   *config.Config
	log   *slog.Logger
	store snapshot.Store

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry returns an empty registry. store may be nil to disable
// snapshot persistence and rehydration entirely.
func NewRegistry(cfg *config.Config, log *slog.Logger, store snapshot.Store) *Registry {
	return &Registry{
		cfg:   cfg,
		log:   log,
		store: store,
		rooms: make(map[string]*Room),
	}
}

func generateRoomCode() (string, error) {
	out := make([]byte, roomCodeLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(roomCodeAlphabet))))
		if err != nil {
			return "", err
		}
		out[i] = roomCodeAlphabet[n.Int64()]
	}
	return string(out), nil
}

// CreateRoom allocates a fresh room under a unique code, starts its
// goroutine, and registers it.
func (reg *Registry) CreateRoom(hostID, geishaSetKey string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var code string
	for attempt := 0; attempt < 10; attempt++ {
		c, err := generateRoomCode()
		if err != nil {
			return nil, err
		}
		if _, exists := reg.rooms[c]; !exists {
			code = c
			break
		}
	}
	if code == "" {
		return nil, roomerrors.ErrRoomFull
	}

	r := NewRoom(code, hostID, reg.cfg, geishaSetKey, reg.log, reg.store)
	reg.rooms[code] = r
	go r.Run()
	reg.log.Info("room created", "tag", "registry", "room", code, "host", hostID)
	return r, nil
}

// Get returns the in-memory room for id, if any, without attempting
// rehydration from the snapshot store.
func (reg *Registry) Get(id string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[id]
	return r, ok
}

// GetOrRehydrate returns the in-memory room for id, or attempts to load a
// persisted snapshot and relaunch a Room around it when none is running —
// the path a JOIN_ROOM after a server restart takes.
func (reg *Registry) GetOrRehydrate(ctx context.Context, id string) (*Room, error) {
	if r, ok := reg.Get(id); ok {
		return r, nil
	}
	if reg.store == nil {
		return nil, roomerrors.ErrRoomNotFound
	}

	state, err := reg.store.LoadRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, roomerrors.ErrRoomNotFound
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rooms[id]; ok {
		return r, nil
	}
	r := NewRoom(id, "", reg.cfg, state.GeishaSetKey, reg.log, reg.store)
	r.State = state
	reg.rooms[id] = r
	go r.Run()
	reg.log.Info("room rehydrated from snapshot", "tag", "registry", "room", id)
	return r, nil
}

// Remove stops a room and deletes its snapshot. Called by the janitor, or
// directly once a game is known to be permanently over.
func (reg *Registry) Remove(id string) {
	reg.mu.Lock()
	r, ok := reg.rooms[id]
	if ok {
		delete(reg.rooms, id)
	}
	reg.mu.Unlock()
	if !ok {
		return
	}
	r.Stop()
	if reg.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := reg.store.DeleteRoom(ctx, id); err != nil {
			reg.log.Warn("snapshot delete failed", "tag", "registry", "room", id, "err", err)
		}
	}
}

// RunJanitor periodically sweeps every room and removes the ones every
// human seat has abandoned. Must be started as its own goroutine; runs
// until ctx is cancelled.
func (reg *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reg.sweep()
		}
	}
}

func (reg *Registry) sweep() {
	reg.mu.RLock()
	var empty []string
	for id, r := range reg.rooms {
		if r.IsEmpty() {
			empty = append(empty, id)
		}
	}
	reg.mu.RUnlock()

	for _, id := range empty {
		reg.log.Info("janitor reclaiming empty room", "tag", "registry", "room", id)
		reg.Remove(id)
	}
}
