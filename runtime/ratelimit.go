package runtime

import (
	"sync"
	"time"
)

// DefaultSendInterval allows roughly ten messages per minute.
const DefaultSendInterval = 6 * time.Second

type limiterKey struct {
	participantID string
	roomCode      string
}

// RateLimiter throttles message sends per (participant, room) pair by
// remembering only the last accepted send time. Entries are reclaimed
// when the owning connection goes away.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	lastSent map[limiterKey]time.Time

	now func() time.Time
}

func NewRateLimiter(interval time.Duration) *RateLimiter {
	if interval <= 0 {
		interval = DefaultSendInterval
	}
	return &RateLimiter{
		interval: interval,
		lastSent: make(map[limiterKey]time.Time),
		now:      time.Now,
	}
}

// Allow reports whether the pair may send now. On acceptance the new
// timestamp is recorded; a refusal leaves the previous one in place.
func (l *RateLimiter) Allow(participantID, roomCode string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := limiterKey{participantID: participantID, roomCode: roomCode}
	now := l.now()
	if last, ok := l.lastSent[key]; ok && now.Sub(last) < l.interval {
		return false
	}
	l.lastSent[key] = now
	return true
}

// Forget drops every entry for the participant, across all rooms.
// Called when their connection terminates.
func (l *RateLimiter) Forget(participantID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key := range l.lastSent {
		if key.participantID == participantID {
			delete(l.lastSent, key)
		}
	}
}
