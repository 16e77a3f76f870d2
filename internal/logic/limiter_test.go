package logic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserLimiterEvictsIdleUsers(t *testing.T) {
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	l := newUserLimiter(1, 2)
	l.now = func() time.Time { return clock }
	l.lastSweep = clock

	assert.True(t, l.Allow(1))
	assert.True(t, l.Allow(1))
	assert.False(t, l.Allow(1), "burst exhausted")

	clock = clock.Add(limiterIdleTTL / 2)
	assert.True(t, l.Allow(2))
	assert.Len(t, l.limiters, 2, "no sweep before the TTL elapses")

	clock = clock.Add(limiterIdleTTL/2 + time.Minute)
	assert.True(t, l.Allow(2))
	assert.Len(t, l.limiters, 1)
	assert.NotContains(t, l.limiters, uint(1))
	assert.Contains(t, l.limiters, uint(2))

	// a returning user starts with a full bucket
	assert.True(t, l.Allow(1))
	assert.True(t, l.Allow(1))
	assert.False(t, l.Allow(1))
}
