package interfaces

import (
	"context"
	"time"

	"github.com/retrace-dev/retrace/pkg/domain/model"
)

// Hit is one ranked result from a semantic search
type Hit struct {
	Document *model.Document
	Score    float64
}

// DocumentIndex is the persistent vector index over indexed documents.
// Upserts are idempotent by document key, so incremental and batch
// indexing may race without external locking. The index is derived state:
// it can always be rebuilt from the event store.
type DocumentIndex interface {
	// Upsert adds or replaces documents by key. All-or-nothing per call.
	Upsert(ctx context.Context, docs []*model.Document) error

	// Search returns up to limit documents ranked by cosine similarity,
	// restricted to start <= timestamp <= end (inclusive bounds).
	Search(ctx context.Context, embedding []float64, limit int, start, end time.Time) ([]*Hit, error)

	// MaxEventID returns the largest source event id present in the
	// index, or 0 when the index is empty.
	MaxEventID(ctx context.Context) (int64, error)

	// Count returns the number of indexed documents
	Count(ctx context.Context) (int64, error)

	// Reset drops every indexed document for a full rebuild
	Reset(ctx context.Context) error

	Close() error
}
