package cart

import (
	"sync"
	"time"
)

type session struct {
	mu       sync.Mutex
	cart     *Cart
	lastSeen time.Time
}

// Sessions holds one cart per session ID. Carts idle for longer than ttl are
// dropped on the next access.
type Sessions struct {
	mu        sync.Mutex
	inventory Inventory
	ttl       time.Duration
	now       func() time.Time
	sessions  map[string]*session
}

func NewSessions(inventory Inventory, ttl time.Duration) *Sessions {
	return &Sessions{
		inventory: inventory,
		ttl:       ttl,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
}

// With runs fn on the session's cart, creating it if needed. Calls for the
// same session are serialized.
func (s *Sessions) With(id string, fn func(c *Cart) error) error {
	s.mu.Lock()
	now := s.now()
	s.pruneLocked(now)
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{cart: New(s.inventory)}
		s.sessions[id] = sess
	}
	sess.lastSeen = now
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.cart)
}

func (s *Sessions) Drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Sessions) pruneLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
