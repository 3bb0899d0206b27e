package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottle(t *testing.T) {
	now := time.Unix(1000, 0)
	th := NewThrottle(500*time.Millisecond, func() time.Time { return now })

	assert.True(t, th.Allow("Move forward"))
	assert.False(t, th.Allow("Move forward"))
	assert.True(t, th.Allow("Turn left"), "distinct messages are limited separately")

	now = now.Add(499 * time.Millisecond)
	assert.False(t, th.Allow("Move forward"))

	now = now.Add(time.Millisecond)
	assert.True(t, th.Allow("Move forward"))
	assert.False(t, th.Allow("Move forward"))
}

func TestThrottle_Disabled(t *testing.T) {
	th := NewThrottle(-1, nil)
	for range 3 {
		assert.True(t, th.Allow("same"))
	}
}
