// Package history stores per-conversation query/response exchanges so
// follow-up queries can carry prior context.
package history

import (
	"sync"
	"time"
)

// Exchange is one completed query/response pair.
type Exchange struct {
	Query    string    `json:"query"`
	Response string    `json:"response"`
	At       time.Time `json:"at"`
}

// Conversation is a snapshot of one conversation's recorded exchanges.
type Conversation struct {
	ID        string     `json:"id"`
	Exchanges []Exchange `json:"exchanges"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// InMemoryStore is a volatile conversation store keeping exchanges in a
// process local map. It is safe for concurrent access and best suited for
// CLIs, tests and ephemeral demo servers. Returned conversations are copies,
// so callers cannot mutate internal state.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	limit         int
}

// NewInMemoryStore constructs an empty in-memory conversation store. limit
// caps the exchanges retained per conversation; zero or negative means
// unlimited.
func NewInMemoryStore(limit int) *InMemoryStore {
	return &InMemoryStore{
		conversations: make(map[string]*Conversation),
		limit:         limit,
	}
}

// Append records one exchange, creating the conversation lazily and trimming
// to the retention limit.
func (s *InMemoryStore) Append(conversationID string, ex Exchange) {
	if ex.At.IsZero() {
		ex.At = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		conv = &Conversation{ID: conversationID}
		s.conversations[conversationID] = conv
	}
	conv.Exchanges = append(conv.Exchanges, ex)
	if s.limit > 0 && len(conv.Exchanges) > s.limit {
		conv.Exchanges = conv.Exchanges[len(conv.Exchanges)-s.limit:]
	}
	conv.UpdatedAt = ex.At
}

// Exchanges returns a copy of a conversation's exchanges in recording order.
// Unknown conversations return nil.
func (s *InMemoryStore) Exchanges(conversationID string) []Exchange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil
	}
	return append([]Exchange{}, conv.Exchanges...)
}

// Get returns a copy of a conversation.
func (s *InMemoryStore) Get(conversationID string) (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return Conversation{}, false
	}
	out := *conv
	out.Exchanges = append([]Exchange{}, conv.Exchanges...)
	return out, true
}

// Clear drops a conversation.
func (s *InMemoryStore) Clear(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, conversationID)
}

// IDs lists the known conversation ids.
func (s *InMemoryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.conversations))
	for id := range s.conversations {
		ids = append(ids, id)
	}
	return ids
}
