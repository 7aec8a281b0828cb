package transcript

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore keeps committed turns in process memory. It is the default
// backend when no database is configured.
type InMemoryStore struct {
	mu        sync.RWMutex
	bySession map[string][]TurnRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{bySession: make(map[string][]TurnRecord)}
}

func (s *InMemoryStore) SaveTurn(_ context.Context, record TurnRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bySession[record.SessionID] = append(s.bySession[record.SessionID], record)
	return nil
}

func (s *InMemoryStore) History(_ context.Context, sessionID string, limit int) ([]TurnRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.bySession[sessionID]
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	out := make([]TurnRecord, len(records))
	copy(out, records)
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
