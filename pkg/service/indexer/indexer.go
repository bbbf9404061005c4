package indexer

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/retrace-dev/retrace/pkg/domain/interfaces"
	"github.com/retrace-dev/retrace/pkg/domain/model"
	"github.com/retrace-dev/retrace/pkg/utils/logging"
)

const defaultEmbedTimeout = 30 * time.Second

// Indexer keeps the vector index caught up with the event log. It tracks
// a high-water mark (the largest event id already indexed) and only
// touches events above it. Upserts are idempotent by document key, so a
// crash between upsert and the next run just re-upserts the same rows.
type Indexer struct {
	store interfaces.EventStore
	index interfaces.DocumentIndex
	llm   gollem.LLMClient

	embedTimeout time.Duration

	mu        sync.Mutex
	lastID    int64
	recovered bool
}

// Option configures an Indexer
type Option func(*Indexer)

// WithEmbedTimeout bounds each embedding batch call
func WithEmbedTimeout(d time.Duration) Option {
	return func(x *Indexer) {
		x.embedTimeout = d
	}
}

// New creates an Indexer. A nil llm disables indexing for the process
// lifetime: every method becomes a no-op and capture keeps working.
func New(store interfaces.EventStore, index interfaces.DocumentIndex, llm gollem.LLMClient, opts ...Option) *Indexer {
	x := &Indexer{
		store:        store,
		index:        index,
		llm:          llm,
		embedTimeout: defaultEmbedTimeout,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Enabled reports whether an embedding backend is configured
func (x *Indexer) Enabled() bool {
	return x.llm != nil
}

// ensureMark recovers the high-water mark from the index once. When the
// index cannot report it, the mark defaults to 0: the next run reindexes
// everything, and idempotent upserts make the repeat harmless. Caller
// must hold x.mu.
func (x *Indexer) ensureMark(ctx context.Context) {
	if x.recovered {
		return
	}
	maxID, err := x.index.MaxEventID(ctx)
	if err != nil {
		logging.From(ctx).Warn("failed to recover index high-water mark, reindexing from scratch", "error", err)
		maxID = 0
	}
	x.lastID = maxID
	x.recovered = true
}

// Reindex indexes every event above the high-water mark and returns the
// number of documents written. The mark only advances after a successful
// upsert, so a failed run leaves the next run to retry the same span.
func (x *Indexer) Reindex(ctx context.Context) (int, error) {
	if !x.Enabled() {
		logging.From(ctx).Debug("indexing disabled, skipping reindex")
		return 0, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	x.ensureMark(ctx)

	events, err := x.store.Range(ctx, x.lastID)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to read events after high-water mark", goerr.V("since_id", x.lastID))
	}
	if len(events) == 0 {
		return 0, nil
	}

	var (
		docs  []*model.Document
		maxID = x.lastID
	)
	for _, ev := range events {
		if ev.ID > maxID {
			maxID = ev.ID
		}
		// Events with no derivable text still advance the mark, just
		// without a document.
		if doc := model.BuildDocument(ev); doc != nil {
			docs = append(docs, doc)
		}
	}

	if len(docs) > 0 {
		if err := x.embedAll(ctx, docs); err != nil {
			return 0, err
		}
		if err := x.index.Upsert(ctx, docs); err != nil {
			return 0, goerr.Wrap(err, "failed to upsert documents", goerr.V("count", len(docs)))
		}
	}

	x.lastID = maxID
	logging.From(ctx).Info("reindex complete",
		"indexed", len(docs),
		"scanned", len(events),
		"last_id", maxID,
	)
	return len(docs), nil
}

// IndexOne indexes a single freshly appended event. Failures are the
// caller's to log; the batch reindex path will pick the event up later
// because the mark only advances past ids that reached the index.
func (x *Indexer) IndexOne(ctx context.Context, ev *model.ActivityEvent) error {
	if !x.Enabled() {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	x.ensureMark(ctx)

	doc := model.BuildDocument(ev)
	if doc == nil {
		if ev.ID > x.lastID {
			x.lastID = ev.ID
		}
		return nil
	}

	if err := x.embedAll(ctx, []*model.Document{doc}); err != nil {
		return err
	}
	if err := x.index.Upsert(ctx, []*model.Document{doc}); err != nil {
		return goerr.Wrap(err, "failed to upsert document", goerr.V("key", doc.Key))
	}

	if ev.ID > x.lastID {
		x.lastID = ev.ID
	}
	return nil
}

// Rebuild drops the index and reindexes the full event log
func (x *Indexer) Rebuild(ctx context.Context) (int, error) {
	if !x.Enabled() {
		return 0, goerr.New("cannot rebuild index without an embedding backend")
	}

	x.mu.Lock()
	if err := x.index.Reset(ctx); err != nil {
		x.mu.Unlock()
		return 0, err
	}
	x.lastID = 0
	x.recovered = true
	x.mu.Unlock()

	return x.Reindex(ctx)
}

func (x *Indexer) embedAll(ctx context.Context, docs []*model.Document) error {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	embedCtx, cancel := context.WithTimeout(ctx, x.embedTimeout)
	defer cancel()

	embeddings, err := x.llm.GenerateEmbedding(embedCtx, model.EmbeddingDimension, texts)
	if err != nil {
		return goerr.Wrap(err, "failed to generate embeddings", goerr.V("count", len(texts)))
	}
	if len(embeddings) != len(docs) {
		return goerr.New("embedding count mismatch",
			goerr.V("want", len(docs)),
			goerr.V("got", len(embeddings)),
		)
	}

	for i, doc := range docs {
		if len(embeddings[i]) == 0 {
			return goerr.New("empty embedding returned", goerr.V("key", doc.Key))
		}
		doc.Embedding = embeddings[i]
	}
	return nil
}
