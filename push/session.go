package push

import (
	"sync"
	"time"
)

// session is owned by Listener run loop.
// Mutex only allows PersistentIDs() from other goroutines.
type session struct {
	mu        sync.Mutex
	acked     []string
	ackedSet  map[string]struct{}
	lastReset time.Time
}

func newSession(alreadySeen []string) *session {
	s := &session{
		acked:    make([]string, 0, len(alreadySeen)),
		ackedSet: make(map[string]struct{}, len(alreadySeen)),
	}
	for _, id := range alreadySeen {
		s.ack(id)
	}
	return s
}

// ack records id, preserving first receipt order. Returns false for known id.
func (s *session) ack(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ackedSet[id]; ok {
		return false
	}
	s.ackedSet[id] = struct{}{}
	s.acked = append(s.acked, id)
	return true
}

func (s *session) seen(id string) bool {
	s.mu.Lock()
	_, ok := s.ackedSet[id]
	s.mu.Unlock()
	return ok
}

func (s *session) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := make([]string, len(s.acked))
	copy(r, s.acked)
	return r
}
