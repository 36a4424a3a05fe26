package conversation

import (
	"context"
	"fmt"
	"sync"

	"github.com/sweetpotato0/tripflow/message"
)

// MemoryStore implements Store using in-memory storage. It is the default
// backend: thread histories live for the process lifetime only.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string][]*message.Message
}

// NewMemoryStore creates a new in-memory conversation store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		threads: make(map[string][]*message.Message),
	}
}

// Messages returns a copy of the thread history in append order.
func (s *MemoryStore) Messages(ctx context.Context, threadID string) ([]*message.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.threads[threadID]
	out := make([]*message.Message, len(history))
	for i, msg := range history {
		out[i] = message.Clone(msg)
	}
	return out, nil
}

// Append adds messages to the end of the thread history.
func (s *MemoryStore) Append(ctx context.Context, threadID string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		if msg == nil {
			return fmt.Errorf("message cannot be nil")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, msg := range msgs {
		s.threads[threadID] = append(s.threads[threadID], message.Clone(msg))
	}
	return nil
}

// Len returns the current history length for a thread.
func (s *MemoryStore) Len(ctx context.Context, threadID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.threads[threadID]), nil
}

// Threads returns all thread ids with at least one message.
func (s *MemoryStore) Threads() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.threads))
	for id := range s.threads {
		ids = append(ids, id)
	}
	return ids
}
