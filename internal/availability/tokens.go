package availability

import "sync"

// Tokens hands out monotonically increasing request tokens per key so that
// only the most recently started fetch may publish its result.
type Tokens struct {
	mu     sync.Mutex
	latest map[string]uint64
}

// NewTokens constructs an empty token registry.
func NewTokens() *Tokens {
	return &Tokens{latest: make(map[string]uint64)}
}

// Next starts a new request for key and returns its token.
func (t *Tokens) Next(key string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest[key]++
	return t.latest[key]
}

// IsLatest reports whether token is still the newest for key.
func (t *Tokens) IsLatest(key string, token uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest[key] == token
}

// Commit runs apply only if token is still the newest for key. The check and
// apply happen under one lock so a newer request cannot slip in between.
func (t *Tokens) Commit(key string, token uint64, apply func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest[key] != token {
		return false
	}
	apply()
	return true
}
