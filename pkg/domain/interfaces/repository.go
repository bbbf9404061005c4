package interfaces

import (
	"context"
	"time"

	"github.com/retrace-dev/retrace/pkg/domain/model"
)

// EventStore is the append-only activity log. Appends are serialized by the
// implementation (the embedded store does not support concurrent writers);
// reads may run concurrently and observe committed data.
type EventStore interface {
	// Append persists a new event and returns the assigned id.
	// Ids are strictly increasing across the life of the store.
	Append(ctx context.Context, ev *model.ActivityEvent) (int64, error)

	// Range returns events with id strictly greater than sinceID,
	// ascending by id.
	Range(ctx context.Context, sinceID int64) ([]*model.ActivityEvent, error)

	// Latest returns up to n most recent events, descending by timestamp.
	Latest(ctx context.Context, n int) ([]*model.ActivityEvent, error)

	// Between returns events with start <= timestamp <= end and a known
	// app name, ascending by timestamp. Used by the usage aggregator.
	Between(ctx context.Context, start, end time.Time) ([]*model.ActivityEvent, error)

	Close() error
}
