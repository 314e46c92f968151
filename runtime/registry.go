// Package runtime holds the live room store and the components that
// operate on it: registry, presence tracking, voting, and the message
// rate limiter. It contains no transport or UI logic.
package runtime

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"moment/domain"
	apperrors "moment/errors"
)

// codeAlphabet excludes visually ambiguous characters (0/O, 1/I).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeLength      = 6
	maxCodeAttempts = 100
)

// Registry owns the code-to-room mapping. Rooms are created, looked up
// and deleted here; everything inside a room is guarded by the room's
// own lock, so the registry only synchronizes the map itself.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*domain.Room
	capacity int
	log      *slog.Logger
}

// NewRegistry builds an empty room store. A capacity of zero leaves
// rooms at their default maximum.
func NewRegistry(log *slog.Logger, capacity int) *Registry {
	return &Registry{
		rooms:    make(map[string]*domain.Room),
		capacity: capacity,
		log:      log,
	}
}

// CreateRoom issues a collision-free code and registers a new room
// expiring at now+ttl. Code generation retries against the current key
// set up to a bounded attempt count; running out of attempts reports
// ErrCodeSpaceExhausted rather than ever handing out a duplicate code.
func (r *Registry) CreateRoom(displayName string, ttl time.Duration, kind domain.RoomKind) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, err := r.generateCodeLocked()
	if err != nil {
		return nil, err
	}

	room := domain.NewRoom(code, displayName, ttl, kind, r.capacity)
	r.rooms[code] = room
	r.log.Info("Room created", "code", code, "kind", kind.String(), "expires_at", room.ExpiresAt())
	return room, nil
}

// GetRoom is a non-mutating lookup. Absence is not an error here;
// callers decide what a missing room means.
func (r *Registry) GetRoom(code string) (*domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[code]
	return room, ok
}

// DeleteRoom removes a room. Deleting an absent code is a no-op, which
// lets the scheduler and the departure cascade race benignly.
func (r *Registry) DeleteRoom(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[code]; ok {
		delete(r.rooms, code)
		r.log.Info("Room deleted", "code", code)
	}
}

// Snapshot returns a copied slice of the current rooms for iteration.
// A room deleted after the snapshot was taken simply fails its next
// lookup; holding the slice never blocks concurrent deletion.
func (r *Registry) Snapshot() []*domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Registry) generateCodeLocked() (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		buf := make([]byte, codeLength)
		for i := range buf {
			buf[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
		}
		code := string(buf)
		if _, taken := r.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", apperrors.ErrCodeSpaceExhausted
}
