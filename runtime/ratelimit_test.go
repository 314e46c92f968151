package runtime

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowDenyAllowCycle(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter(6 * time.Second)

	now := time.Now()
	limiter.now = func() time.Time { return now }

	participantID := uuid.NewString()

	// First send is accepted
	req.True(limiter.Allow(participantID, "AAAAAA"))

	// A second send inside the window is refused
	now = now.Add(3 * time.Second)
	req.False(limiter.Allow(participantID, "AAAAAA"))

	// A refusal does not reset the window: 6s after the accepted send
	// the pair may send again
	now = now.Add(3 * time.Second)
	req.True(limiter.Allow(participantID, "AAAAAA"))
}

func TestRateLimiter_PairsAreIndependent(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter(6 * time.Second)

	participantID := uuid.NewString()

	req.True(limiter.Allow(participantID, "AAAAAA"))

	// Same participant in another room, and another participant in the
	// same room, are unaffected
	req.True(limiter.Allow(participantID, "BBBBBB"))
	req.True(limiter.Allow(uuid.NewString(), "AAAAAA"))
}

func TestRateLimiter_ForgetReclaimsEntries(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter(time.Hour)

	participantID := uuid.NewString()
	req.True(limiter.Allow(participantID, "AAAAAA"))
	req.False(limiter.Allow(participantID, "AAAAAA"))

	// When the connection terminates, the entry is reclaimed and the
	// next send starts fresh
	limiter.Forget(participantID)
	req.True(limiter.Allow(participantID, "AAAAAA"))
}
