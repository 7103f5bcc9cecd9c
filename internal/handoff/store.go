package handoff

import (
	"sync"
	"time"
)

// Store holds, per account, the most recently produced archive until the
// download trigger consumes it. Put replaces any pointer not yet taken.
type Store struct {
	mu      sync.Mutex
	pending map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

type entry struct {
	filename string
	storedAt time.Time
}

// NewStore returns a store whose pointers expire after ttl (never when ttl <= 0).
func NewStore(ttl time.Duration) *Store {
	return &Store{
		pending: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Put records filename as the pending download for accountID.
func (s *Store) Put(accountID, filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[accountID] = entry{filename: filename, storedAt: s.now()}
}

// Take returns and clears the pending download for accountID.
func (s *Store) Take(accountID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.pending[accountID]
	if !ok {
		return "", false
	}
	delete(s.pending, accountID)
	if s.ttl > 0 && s.now().Sub(e.storedAt) > s.ttl {
		return "", false
	}
	return e.filename, true
}
