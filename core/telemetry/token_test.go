package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenCache(t *testing.T) {
	now := int64(1000)
	cache := newTokenCache(60)
	cache.now = func() int64 { return now }

	t.Run("Empty", func(t *testing.T) {
		_, ok := cache.get()
		assert.False(t, ok)
	})

	t.Run("Valid", func(t *testing.T) {
		cache.set("tok-1", 2000)
		token, ok := cache.get()
		assert.True(t, ok)
		assert.Equal(t, "tok-1", token)
	})

	t.Run("Expires Within Safety Margin", func(t *testing.T) {
		cache.set("tok-1", 2000)
		now = 1941 // 59s before expiry, inside the 60s margin
		_, ok := cache.get()
		assert.False(t, ok)
	})

	t.Run("Invalidate", func(t *testing.T) {
		now = 1000
		cache.set("tok-2", 5000)
		cache.invalidate()
		_, ok := cache.get()
		assert.False(t, ok)
	})
}
