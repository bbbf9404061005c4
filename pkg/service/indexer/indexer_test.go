package indexer_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/retrace-dev/retrace/pkg/domain/model"
	"github.com/retrace-dev/retrace/pkg/domain/types"
	"github.com/retrace-dev/retrace/pkg/repository/index"
	"github.com/retrace-dev/retrace/pkg/repository/memory"
	"github.com/retrace-dev/retrace/pkg/service/indexer"
)

type mockLLMClient struct {
	generateEmbeddingFn func(ctx context.Context, dimension int, input []string) ([][]float64, error)
	calls               int
}

func (m *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, nil
}

func (m *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	m.calls++
	if m.generateEmbeddingFn != nil {
		return m.generateEmbeddingFn(ctx, dimension, input)
	}
	out := make([][]float64, len(input))
	for i := range input {
		vec := make([]float64, dimension)
		vec[i%dimension] = 1
		out[i] = vec
	}
	return out, nil
}

func newTestIndex(t *testing.T) *index.Index {
	t.Helper()
	idx, err := index.New(filepath.Join(t.TempDir(), "index.db"))
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func appendContent(t *testing.T, store *memory.Store, app, text string) int64 {
	t.Helper()
	id, err := store.Append(context.Background(), &model.ActivityEvent{
		Timestamp:   time.Now(),
		RecordType:  types.RecordScreenContent,
		TriggeredBy: types.TriggerTimer,
		AppName:     app,
		OCRText:     text,
	})
	gt.NoError(t, err).Required()
	return id
}

func TestReindexCatchesUp(t *testing.T) {
	store := memory.New()
	idx := newTestIndex(t)
	llm := &mockLLMClient{}
	x := indexer.New(store, idx, llm)
	ctx := context.Background()

	appendContent(t, store, "Chrome", "first")
	appendContent(t, store, "VSCode", "second")

	n, err := x.Reindex(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, n).Equal(2)

	count, err := idx.Count(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, count).Equal(int64(2))

	// Nothing new means nothing indexed and no embedding call
	callsBefore := llm.calls
	n, err = x.Reindex(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, n).Equal(0)
	gt.Value(t, llm.calls).Equal(callsBefore)
}

func TestReindexSkipsTextlessEventsButAdvances(t *testing.T) {
	store := memory.New()
	idx := newTestIndex(t)
	x := indexer.New(store, idx, &mockLLMClient{})
	ctx := context.Background()

	appendContent(t, store, "Chrome", "real text")
	// Unknown app with no text yields no document
	appendContent(t, store, types.AppUnknown, "")

	n, err := x.Reindex(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, n).Equal(1)

	// The textless event must not be revisited
	n, err = x.Reindex(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, n).Equal(0)
}

func TestReindexDoesNotAdvanceOnEmbeddingFailure(t *testing.T) {
	store := memory.New()
	idx := newTestIndex(t)
	llm := &mockLLMClient{
		generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
			return nil, goerr.New("backend unavailable")
		},
	}
	x := indexer.New(store, idx, llm)
	ctx := context.Background()

	appendContent(t, store, "Chrome", "text")

	_, err := x.Reindex(ctx)
	gt.Error(t, err)

	count, err := idx.Count(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, count).Equal(int64(0))

	// After the backend recovers the same event is retried
	llm.generateEmbeddingFn = nil
	n, err := x.Reindex(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, n).Equal(1)
}

type brokenMarkIndex struct {
	*index.Index
	markErr error
}

func (f *brokenMarkIndex) MaxEventID(ctx context.Context) (int64, error) {
	if f.markErr != nil {
		return 0, f.markErr
	}
	return f.Index.MaxEventID(ctx)
}

func TestMarkRecoveryFailureFallsBackToFullReindex(t *testing.T) {
	store := memory.New()
	idx := newTestIndex(t)
	broken := &brokenMarkIndex{Index: idx, markErr: goerr.New("index metadata unavailable")}
	x := indexer.New(store, broken, &mockLLMClient{})
	ctx := context.Background()

	appendContent(t, store, "Chrome", "first")
	appendContent(t, store, "VSCode", "second")

	// Recovery failure defaults the mark to 0 and everything is indexed
	n, err := x.Reindex(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, n).Equal(2)

	count, err := idx.Count(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, count).Equal(int64(2))
}

func TestMarkRecoveredFromIndex(t *testing.T) {
	store := memory.New()
	idx := newTestIndex(t)
	ctx := context.Background()

	id1 := appendContent(t, store, "Chrome", "already indexed")
	appendContent(t, store, "VSCode", "not yet indexed")

	// Pre-populate the index as if a previous process had run
	doc := model.BuildDocument(&model.ActivityEvent{
		ID:          id1,
		Timestamp:   time.Now(),
		RecordType:  types.RecordScreenContent,
		TriggeredBy: types.TriggerTimer,
		AppName:     "Chrome",
		OCRText:     "already indexed",
	})
	gt.Value(t, doc).NotNil()
	doc.Embedding = []float64{1, 0}
	gt.NoError(t, idx.Upsert(ctx, []*model.Document{doc})).Required()

	// A fresh indexer must resume after id1, not from zero
	x := indexer.New(store, idx, &mockLLMClient{})
	n, err := x.Reindex(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, n).Equal(1)
}

func TestIndexOne(t *testing.T) {
	store := memory.New()
	idx := newTestIndex(t)
	x := indexer.New(store, idx, &mockLLMClient{})
	ctx := context.Background()

	id := appendContent(t, store, "Chrome", "clicked something")
	events, err := store.Range(ctx, 0)
	gt.NoError(t, err).Required()
	gt.NoError(t, x.IndexOne(ctx, events[0])).Required()

	maxID, err := idx.MaxEventID(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, maxID).Equal(id)

	// The batch path must not re-embed the event IndexOne already covered
	n, err := x.Reindex(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, n).Equal(0)
}

func TestDisabledWithoutLLM(t *testing.T) {
	store := memory.New()
	idx := newTestIndex(t)
	x := indexer.New(store, idx, nil)
	ctx := context.Background()

	gt.Bool(t, x.Enabled()).False()

	appendContent(t, store, "Chrome", "text")

	n, err := x.Reindex(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, n).Equal(0)

	events, err := store.Range(ctx, 0)
	gt.NoError(t, err).Required()
	gt.NoError(t, x.IndexOne(ctx, events[0]))

	count, err := idx.Count(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, count).Equal(int64(0))
}

func TestRebuild(t *testing.T) {
	store := memory.New()
	idx := newTestIndex(t)
	x := indexer.New(store, idx, &mockLLMClient{})
	ctx := context.Background()

	appendContent(t, store, "Chrome", "a")
	appendContent(t, store, "VSCode", "b")

	_, err := x.Reindex(ctx)
	gt.NoError(t, err).Required()

	n, err := x.Rebuild(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, n).Equal(2)

	count, err := idx.Count(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, count).Equal(int64(2))
}
