package auth

import (
	"sync"
	"time"
)

// RevocationList holds the ids of logged-out tokens until they would have
// expired anyway. Safe for concurrent use.
type RevocationList struct {
	mu      sync.Mutex
	entries map[string]time.Time // token id -> expiry
	now     func() time.Time
}

func NewRevocationList() *RevocationList {
	return &RevocationList{entries: make(map[string]time.Time), now: time.Now}
}

// Revoke marks a token id as revoked until expiresAt. Expired entries are
// pruned on each call.
func (l *RevocationList) Revoke(tokenID string, expiresAt time.Time) {
	if tokenID == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, exp := range l.entries {
		if now.After(exp) {
			delete(l.entries, id)
		}
	}
	l.entries[tokenID] = expiresAt
}

func (l *RevocationList) IsRevoked(tokenID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	exp, ok := l.entries[tokenID]
	return ok && !l.now().After(exp)
}

func (l *RevocationList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
