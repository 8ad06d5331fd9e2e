package telemetry

import (
	"sync"
	"time"
)

// tokenCache holds the short-lived provider access token with its expiry.
// It is owned by the Client instance, never shared globally, and refreshed
// before the expiry minus a safety margin.
type tokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt int64
	margin    int64

	// now is swappable for tests.
	now func() int64
}

func newTokenCache(marginSeconds int64) *tokenCache {
	return &tokenCache{
		margin: marginSeconds,
		now:    func() int64 { return time.Now().Unix() },
	}
}

// get returns the cached token if it is still valid within the safety margin.
func (c *tokenCache) get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == "" || c.now() >= c.expiresAt-c.margin {
		return "", false
	}
	return c.token, true
}

// set stores a freshly acquired token and its expiry.
func (c *tokenCache) set(token string, expiresAt int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
	c.expiresAt = expiresAt
}

// invalidate drops the cached token after an explicit provider rejection.
func (c *tokenCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = ""
	c.expiresAt = 0
}
