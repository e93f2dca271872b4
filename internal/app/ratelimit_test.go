package app

import (
	"testing"
	"time"

	"github.com/dkeye/Parley/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_SlidingWindow(t *testing.T) {
	req := require.New(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, 10*time.Second)
	rl.now = func() time.Time { return now }

	req.True(rl.Allow("alice"))
	req.True(rl.Allow("alice"))
	req.False(rl.Allow("alice"))
	req.True(rl.Allow("bob"), "limits are per identity")

	now = now.Add(11 * time.Second)
	req.True(rl.Allow("alice"))
	req.True(rl.Allow("alice"))
	req.False(rl.Allow("alice"))
}

func TestRateLimiter_IdleIdentitiesAreDropped(t *testing.T) {
	req := require.New(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, 10*time.Second)
	rl.now = func() time.Time { return now }

	req.True(rl.Allow("alice"))
	req.True(rl.Allow("bob"))
	req.Len(rl.history, 2)

	now = now.Add(11 * time.Second)
	req.True(rl.Allow("alice"))
	req.True(rl.Allow("carol"))
	req.Len(rl.history, 2)
	req.NotContains(rl.history, domain.Identity("bob"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	req := require.New(t)
	var nilLimiter *RateLimiter
	req.True(nilLimiter.Allow("alice"))

	rl := NewRateLimiter(0, time.Second)
	for range 100 {
		req.True(rl.Allow("alice"))
	}
}
