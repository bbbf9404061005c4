package usecase_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/retrace-dev/retrace/pkg/repository/index"
	"github.com/retrace-dev/retrace/pkg/repository/memory"
	"github.com/retrace-dev/retrace/pkg/service/indexer"
	"github.com/retrace-dev/retrace/pkg/usecase"
)

type mockSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.GenerateContent(ctx, input...)
}

func (s *mockSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return s.GenerateStream(ctx, input...)
}

func (s *mockSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{Texts: []string{"canned answer"}}, nil
}

func (s *mockSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockSession) History() (*gollem.History, error) { return nil, nil }

func (s *mockSession) AppendHistory(*gollem.History) error { return nil }

func (s *mockSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

type mockLLMClient struct {
	session *mockSession
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	if c.session != nil {
		return c.session, nil
	}
	return &mockSession{}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	out := make([][]float64, len(input))
	for i := range input {
		vec := make([]float64, dimension)
		vec[0] = 1
		out[i] = vec
	}
	return out, nil
}

func newQueryFixture(t *testing.T, llm gollem.LLMClient, now time.Time) (*usecase.UseCases, *memory.Store) {
	t.Helper()
	store := memory.New()
	idx, err := index.New(filepath.Join(t.TempDir(), "index.db"))
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = idx.Close() })

	uc := usecase.New(store, idx, indexer.New(store, idx, llm), llm,
		usecase.WithNow(func() time.Time { return now }))
	return uc, store
}

func TestQueryWithoutLLMFails(t *testing.T) {
	uc, _ := newQueryFixture(t, nil, time.Now())
	_, err := uc.QueryActivity(context.Background(), "what did I do today")
	gt.Error(t, err)
}

func TestQueryEmptyRangeReturnsDeterministicMessage(t *testing.T) {
	now := time.Date(2024, 5, 15, 14, 30, 0, 0, time.UTC)
	uc, _ := newQueryFixture(t, &mockLLMClient{}, now)

	answer, err := uc.QueryActivity(context.Background(), "最近5分钟我在做什么")
	gt.NoError(t, err).Required()
	gt.Bool(t, strings.Contains(answer, "No activity records found")).True()
	gt.Bool(t, strings.Contains(answer, "2024-05-15 14:25:00")).True()
	gt.Bool(t, strings.Contains(answer, "2024-05-15 14:30:00")).True()
}

func TestQueryGeneratesAnswerFromIndexedContext(t *testing.T) {
	now := time.Now()
	var prompt string
	llm := &mockLLMClient{session: &mockSession{
		generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
			if text, ok := input[0].(gollem.Text); ok {
				prompt = string(text)
			}
			return &gollem.Response{Texts: []string{"You were reviewing pull requests in Chrome."}}, nil
		},
	}}
	uc, store := newQueryFixture(t, llm, now)

	ev := observation(now.Add(-10*time.Minute), "Chrome")
	ev.OCRText = "pull request review queue"
	ev.URL = "https://github.com/owner/repo/pulls"
	_, err := store.Append(context.Background(), ev)
	gt.NoError(t, err).Required()

	// The pre-query reindex must pick the event up without an explicit
	// reindex call
	answer, err := uc.QueryActivity(context.Background(), "what did I do in the last hour")
	gt.NoError(t, err).Required()
	gt.Value(t, answer).Equal("You were reviewing pull requests in Chrome.")

	gt.Bool(t, strings.Contains(prompt, "pull request review queue")).True()
	gt.Bool(t, strings.Contains(prompt, "https://github.com/owner/repo/pulls")).True()
	gt.Bool(t, strings.Contains(prompt, "what did I do in the last hour")).True()
}

func TestQueryFallsBackWhenGenerationFails(t *testing.T) {
	now := time.Now()
	llm := &mockLLMClient{session: &mockSession{
		generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
			return nil, goerr.New("model overloaded")
		},
	}}
	uc, store := newQueryFixture(t, llm, now)

	ctx := context.Background()
	_, err := store.Append(ctx, observation(now.Add(-20*time.Minute), "Chrome"))
	gt.NoError(t, err).Required()
	_, err = store.Append(ctx, observation(now.Add(-15*time.Minute), "Chrome"))
	gt.NoError(t, err).Required()
	_, err = store.Append(ctx, observation(now.Add(-10*time.Minute), "VSCode"))
	gt.NoError(t, err).Required()

	answer, err := uc.QueryActivity(ctx, "what did I do in the last hour")
	gt.NoError(t, err).Required()

	gt.Bool(t, strings.Contains(answer, "Most active applications")).True()
	gt.Bool(t, strings.Contains(answer, "Chrome: 2 records")).True()
	gt.Bool(t, strings.Contains(answer, "VSCode: 1 records")).True()
}

func TestQueryRespectsTimeFilter(t *testing.T) {
	now := time.Date(2024, 5, 15, 14, 30, 0, 0, time.UTC)
	llm := &mockLLMClient{}
	uc, store := newQueryFixture(t, llm, now)

	// Only an old event exists; a narrow recent window must not see it
	_, err := store.Append(context.Background(), observation(now.Add(-2*time.Hour), "Chrome"))
	gt.NoError(t, err).Required()

	answer, err := uc.QueryActivity(context.Background(), "最近5分钟我在做什么")
	gt.NoError(t, err).Required()
	gt.Bool(t, strings.Contains(answer, "No activity records found")).True()
}
