package amadeus

import (
	"context"
	"sync"
	"time"
)

// FetchFunc obtains a fresh token and its expiry.
type FetchFunc func(ctx context.Context) (value string, expiry time.Time, err error)

// TokenCache holds one access token with its expiry and refreshes it lazily.
// It is an explicit object handed to whoever needs the credential, never
// package-level state.
type TokenCache struct {
	mu     sync.Mutex
	value  string
	expiry time.Time
	now    func() time.Time
}

// NewTokenCache creates an empty token cache
func NewTokenCache() *TokenCache {
	return &TokenCache{now: time.Now}
}

// Get returns the cached token, refreshing it through fetch when missing or
// expired. Concurrent callers share one refresh.
func (t *TokenCache) Get(ctx context.Context, fetch FetchFunc) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.value != "" && t.now().Before(t.expiry) {
		return t.value, nil
	}

	value, expiry, err := fetch(ctx)
	if err != nil {
		return "", err
	}

	t.value = value
	t.expiry = expiry
	return value, nil
}

// Invalidate drops the cached token so the next Get refreshes.
func (t *TokenCache) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = ""
	t.expiry = time.Time{}
}
