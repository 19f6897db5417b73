package srv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketBurstThenRefill(t *testing.T) {
	b := newTokenBucket(3)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		assert.True(t, b.allow(now, 2, 3), "burst %d", i)
	}
	assert.False(t, b.allow(now, 2, 3))

	now = now.Add(500 * time.Millisecond)
	assert.True(t, b.allow(now, 2, 3))
	assert.False(t, b.allow(now, 2, 3))

	now = now.Add(time.Hour)
	for i := 0; i < 3; i++ {
		assert.True(t, b.allow(now, 2, 3))
	}
	assert.False(t, b.allow(now, 2, 3))
}
