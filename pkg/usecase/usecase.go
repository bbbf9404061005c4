package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/retrace-dev/retrace/pkg/domain/interfaces"
	"github.com/retrace-dev/retrace/pkg/domain/model"
	"github.com/retrace-dev/retrace/pkg/service/indexer"
)

const (
	defaultTopK            = 25
	defaultGenerateTimeout = 60 * time.Second
)

// UseCases bundles the retrieval-side operations: semantic queries over
// the activity index, usage summaries, and index maintenance
type UseCases struct {
	store   interfaces.EventStore
	index   interfaces.DocumentIndex
	indexer *indexer.Indexer
	llm     gollem.LLMClient

	topK            int
	generateTimeout time.Duration
	now             func() time.Time
}

type Option func(*UseCases)

// WithTopK overrides how many documents a semantic query retrieves
func WithTopK(k int) Option {
	return func(uc *UseCases) {
		if k > 0 {
			uc.topK = k
		}
	}
}

// WithGenerateTimeout bounds each LLM generation call
func WithGenerateTimeout(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.generateTimeout = d
	}
}

// WithNow injects a clock for tests
func WithNow(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

// New creates the use case layer. llm may be nil: usage summaries and
// event inspection still work, semantic queries report the missing
// backend explicitly.
func New(store interfaces.EventStore, index interfaces.DocumentIndex, idx *indexer.Indexer, llm gollem.LLMClient, opts ...Option) *UseCases {
	uc := &UseCases{
		store:           store,
		index:           index,
		indexer:         idx,
		llm:             llm,
		topK:            defaultTopK,
		generateTimeout: defaultGenerateTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Reindex catches the vector index up with the event log. With rebuild
// set, the index is dropped first and repopulated from id zero.
func (uc *UseCases) Reindex(ctx context.Context, rebuild bool) (int, error) {
	if rebuild {
		return uc.indexer.Rebuild(ctx)
	}
	return uc.indexer.Reindex(ctx)
}

// Recent returns the n most recent events, newest first
func (uc *UseCases) Recent(ctx context.Context, n int) ([]*model.ActivityEvent, error) {
	return uc.store.Latest(ctx, n)
}
