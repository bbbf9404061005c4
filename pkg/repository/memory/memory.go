package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/retrace-dev/retrace/pkg/domain/model"
	"github.com/retrace-dev/retrace/pkg/domain/types"
)

// Store is the in-memory event log used for development and tests. It
// mirrors the sqlite backend's contract: serialized appends, strictly
// increasing ids, consistent reads.
type Store struct {
	mu     sync.RWMutex
	events []*model.ActivityEvent
	nextID int64
}

// New creates an empty in-memory event store
func New() *Store {
	return &Store{nextID: 1}
}

func copyEvent(ev *model.ActivityEvent) *model.ActivityEvent {
	copied := *ev
	return &copied
}

// Append persists a new event and returns the assigned id
func (s *Store) Append(ctx context.Context, ev *model.ActivityEvent) (int64, error) {
	if err := ev.Validate(); err != nil {
		return 0, goerr.Wrap(err, "refusing to append invalid event")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := copyEvent(ev)
	created.ID = s.nextID
	s.nextID++

	s.events = append(s.events, created)
	return created.ID, nil
}

// Range returns events with id strictly greater than sinceID, ascending by id
func (s *Store) Range(ctx context.Context, sinceID int64) ([]*model.ActivityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.ActivityEvent
	for _, ev := range s.events {
		if ev.ID > sinceID {
			result = append(result, copyEvent(ev))
		}
	}
	return result, nil
}

// Latest returns up to n most recent events, descending by timestamp
func (s *Store) Latest(ctx context.Context, n int) ([]*model.ActivityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.ActivityEvent, 0, len(s.events))
	for _, ev := range s.events {
		result = append(result, copyEvent(ev))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	if n < len(result) {
		result = result[:n]
	}
	return result, nil
}

// Between returns events with start <= timestamp <= end and a known app
// name, ascending by timestamp
func (s *Store) Between(ctx context.Context, start, end time.Time) ([]*model.ActivityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.ActivityEvent
	for _, ev := range s.events {
		if ev.AppName == "" || ev.AppName == types.AppUnknown {
			continue
		}
		if ev.Timestamp.Before(start) || ev.Timestamp.After(end) {
			continue
		}
		result = append(result, copyEvent(ev))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

// Close is a no-op for the in-memory store
func (s *Store) Close() error {
	return nil
}
