// Package history tracks bounded per-conversation message history.
package history

import (
	"sync"

	"github.com/impertio/talkbridge/internal/domain"
)

// Store keeps ordered turns per conversation. Implementations must be safe
// for concurrent use; the dispatcher additionally serializes writers per
// conversation via the session lock.
type Store interface {
	// Append adds a turn to the tail, evicting from the head past the cap.
	Append(key domain.ConversationKey, turn domain.Turn) error

	// Snapshot returns a copy of the conversation's turns in order.
	Snapshot(key domain.ConversationKey) ([]domain.Turn, error)

	// Evict removes all turns for the conversation.
	Evict(key domain.ConversationKey) error

	// Len returns the number of stored turns for the conversation.
	Len(key domain.ConversationKey) (int, error)
}

// MemoryStore is an in-memory Store bounded to cap turns per conversation.
type MemoryStore struct {
	mu    sync.RWMutex
	cap   int
	turns map[domain.ConversationKey][]domain.Turn
}

// NewMemoryStore creates a MemoryStore keeping at most cap turns per
// conversation. A cap below 1 keeps everything.
func NewMemoryStore(cap int) *MemoryStore {
	return &MemoryStore{
		cap:   cap,
		turns: make(map[domain.ConversationKey][]domain.Turn),
	}
}

func (s *MemoryStore) Append(key domain.ConversationKey, turn domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.turns[key], turn)
	if s.cap > 0 && len(turns) > s.cap {
		overflow := len(turns) - s.cap
		turns = append(turns[:0:0], turns[overflow:]...)
	}
	s.turns[key] = turns
	return nil
}

func (s *MemoryStore) Snapshot(key domain.ConversationKey) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.turns[key]
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *MemoryStore) Evict(key domain.ConversationKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, key)
	return nil
}

func (s *MemoryStore) Len(key domain.ConversationKey) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns[key]), nil
}
