package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_EnforcesBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	l := rl.limiterFor("10.0.0.1")
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())

	// A different IP has its own bucket.
	assert.True(t, rl.limiterFor("10.0.0.2").Allow())
}

func TestRateLimiter_EvictsOnlyIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.limiterFor("10.0.0.1")
	rl.limiterFor("10.0.0.2")

	rl.mu.Lock()
	rl.clients["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.evictIdle(10 * time.Minute)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	_, evicted := rl.clients["10.0.0.1"]
	_, kept := rl.clients["10.0.0.2"]
	assert.False(t, evicted)
	assert.True(t, kept)
}
