package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"trailview/internal/sink"
	"trailview/pkg/platform/sentinel"
)

// InMemoryStore keeps event summaries in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[uuid.UUID]sink.Summary
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[uuid.UUID]sink.Summary)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[uuid.UUID]sink.Summary)
}

// Deliver stores the summary. Redelivering an existing event ID is a no-op.
func (s *InMemoryStore) Deliver(_ context.Context, summary sink.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[summary.EventID]; ok {
		return nil
	}
	s.events[summary.EventID] = summary
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, eventID uuid.UUID) (sink.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.events[eventID]
	if !ok {
		return sink.Summary{}, sentinel.ErrNotFound
	}
	return summary, nil
}

// ListRecent returns up to limit summaries, newest event time first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]sink.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]sink.Summary, 0, len(s.events))
	for _, summary := range s.events {
		all = append(all, summary)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].EventTime.Equal(all[j].EventTime) {
			return all[i].EventID.String() < all[j].EventID.String()
		}
		return all[i].EventTime.After(all[j].EventTime)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
