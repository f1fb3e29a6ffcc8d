package store

import (
	"sort"
	"sync"
	"time"

	"github.com/i474232898/crop-yield-dashboard/internal/dashboard"
)

// MemoryStore is a concurrency-safe in-memory session store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: session id
	data map[string]*dashboard.Session

	// retention configuration
	maxSessions int           // max number of sessions kept
	maxAge      time.Duration // sessions idle longer than this are dropped

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxSessions or maxAge is <= 0, that limit is not enforced.
func NewMemoryStore(maxSessions int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:        make(map[string]*dashboard.Session),
		maxSessions: maxSessions,
		maxAge:      maxAge,
		now:         time.Now,
	}
}

// Get returns a live session. Sessions idle beyond maxAge are treated as gone.
func (s *MemoryStore) Get(id string) (*dashboard.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.data[id]
	if !ok || s.expired(sess, s.now()) {
		return nil, false
	}
	return sess, true
}

// Put stores a session and evicts the least recently used ones over the limit.
func (s *MemoryStore) Put(sess *dashboard.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[sess.ID] = sess

	if s.maxSessions > 0 && len(s.data) > s.maxSessions {
		s.evictOldest(len(s.data) - s.maxSessions)
	}
}

// Prune drops expired sessions and returns how many were removed.
func (s *MemoryStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.data {
		if s.expired(sess, now) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) expired(sess *dashboard.Session, now time.Time) bool {
	return s.maxAge > 0 && now.Sub(sess.LastSeen()) > s.maxAge
}

// evictOldest removes the n least recently used sessions. Callers hold mu.
func (s *MemoryStore) evictOldest(n int) {
	type entry struct {
		id   string
		seen time.Time
	}
	entries := make([]entry, 0, len(s.data))
	for id, sess := range s.data {
		entries = append(entries, entry{id: id, seen: sess.LastSeen()})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seen.Before(entries[j].seen)
	})
	for i := 0; i < n && i < len(entries); i++ {
		delete(s.data, entries[i].id)
	}
}
