package services

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/splap/bookqa/internal/core/domain"
)

// sessionCacheSize bounds cached question results per session.
const sessionCacheSize = 256

// sessionEntry is one cached routing + retrieval result.
type sessionEntry struct {
	routing domain.RoutingResult
	answer  *domain.Answer
}

// SessionCache caches routing decisions and finished answers for the
// lifetime of one session, keyed by book ID and normalised question.
// Repeated questions are answered without spending budget. Closing the
// session discards everything.
type SessionCache struct {
	mu     sync.Mutex
	cache  *lru.Cache[string, sessionEntry]
	closed bool
}

// NewSessionCache creates a session cache.
func NewSessionCache() (*SessionCache, error) {
	cache, err := lru.New[string, sessionEntry](sessionCacheSize)
	if err != nil {
		return nil, err
	}
	return &SessionCache{cache: cache}, nil
}

func sessionKey(bookID, normalizedQuestion string) string {
	return bookID + "\x00" + normalizedQuestion
}

// GetRouting returns a cached routing decision.
func (s *SessionCache) GetRouting(bookID, normalizedQuestion string) (domain.RoutingResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.RoutingResult{}, false
	}
	entry, ok := s.cache.Get(sessionKey(bookID, normalizedQuestion))
	if !ok || entry.routing.Route == "" {
		return domain.RoutingResult{}, false
	}
	return entry.routing, true
}

// PutRouting caches a routing decision.
func (s *SessionCache) PutRouting(bookID, normalizedQuestion string, routing domain.RoutingResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	key := sessionKey(bookID, normalizedQuestion)
	entry, _ := s.cache.Get(key)
	entry.routing = routing
	s.cache.Add(key, entry)
}

// GetAnswer returns a cached finished answer.
func (s *SessionCache) GetAnswer(bookID, normalizedQuestion string) (*domain.Answer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	entry, ok := s.cache.Get(sessionKey(bookID, normalizedQuestion))
	if !ok || entry.answer == nil {
		return nil, false
	}
	return entry.answer, true
}

// PutAnswer caches a finished answer.
func (s *SessionCache) PutAnswer(bookID, normalizedQuestion string, answer *domain.Answer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	key := sessionKey(bookID, normalizedQuestion)
	entry, _ := s.cache.Get(key)
	entry.answer = answer
	s.cache.Add(key, entry)
}

// Close discards the cache. Subsequent reads miss and writes are
// dropped.
func (s *SessionCache) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cache.Purge()
}
