package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/retrace-dev/retrace/pkg/domain/interfaces"
	"github.com/retrace-dev/retrace/pkg/domain/model"
	"github.com/retrace-dev/retrace/pkg/utils/logging"
)

const rangeTimeLayout = "2006-01-02 15:04:05"

// QueryActivity answers a natural-language question about past screen
// activity. The question's time expression narrows the search window;
// matching documents become the context for an LLM answer. Zero matches
// and generation failures both produce deterministic answers rather
// than errors: only infrastructure faults (store, index, embedding)
// propagate.
func (uc *UseCases) QueryActivity(ctx context.Context, question string) (string, error) {
	if uc.llm == nil {
		return "", goerr.New("semantic queries require an embedding backend; configure the LLM client")
	}
	logger := logging.From(ctx)

	// Catch the index up first so the answer covers just-captured events
	if n, err := uc.indexer.Reindex(ctx); err != nil {
		logger.Warn("pre-query reindex failed, answering from possibly stale index", "error", err)
	} else if n > 0 {
		logger.Debug("pre-query reindex caught up", "indexed", n)
	}

	tr := ParseTimeRange(question, uc.now())

	embeddings, err := uc.llm.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{question})
	if err != nil {
		return "", goerr.Wrap(err, "failed to embed question")
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return "", goerr.New("embedding backend returned an empty vector")
	}

	hits, err := uc.index.Search(ctx, embeddings[0], uc.topK, tr.Start, tr.End)
	if err != nil {
		return "", goerr.Wrap(err, "semantic search failed")
	}

	if len(hits) == 0 {
		return fmt.Sprintf(
			"No activity records found between %s and %s for this question.",
			tr.Start.Format(rangeTimeLayout), tr.End.Format(rangeTimeLayout),
		), nil
	}

	answer, err := uc.generateAnswer(ctx, question, tr, hits)
	if err != nil {
		logger.Warn("answer generation failed, falling back to structured summary", "error", err)
		return fallbackSummary(tr, hits), nil
	}
	return answer, nil
}

func contextBlocks(hits []*interfaces.Hit) string {
	var sb strings.Builder
	for _, hit := range hits {
		meta := hit.Document.Metadata
		sb.WriteString(fmt.Sprintf("Activity (time: %s, app: %s, type: %s",
			meta.TimestampISO, meta.AppName, meta.RecordType))
		if meta.URL != "" && meta.URL != model.MetaAbsent {
			sb.WriteString(", URL: " + meta.URL)
		}
		sb.WriteString(fmt.Sprintf(", relevance: %.2f):\n", hit.Score))
		sb.WriteString(hit.Document.Text)
		sb.WriteString("\n---\n")
	}
	return sb.String()
}

func (uc *UseCases) generateAnswer(ctx context.Context, question string, tr TimeRange, hits []*interfaces.Hit) (string, error) {
	prompt := fmt.Sprintf(`Answer the user's question using only the screen activity records below.
The records were filtered to the time range %s to %s. They may include page titles and URLs; when asked about visited pages, list the concrete URLs.
If the records do not contain enough information, say so instead of guessing.

Activity records:
%s
User question: %q
Answer directly, based strictly on the records above.`,
		tr.Start.Format(rangeTimeLayout), tr.End.Format(rangeTimeLayout),
		contextBlocks(hits), question)

	genCtx, cancel := context.WithTimeout(ctx, uc.generateTimeout)
	defer cancel()

	session, err := uc.llm.NewSession(genCtx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(genCtx, gollem.Text(prompt))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate answer")
	}
	if resp == nil || len(resp.Texts) == 0 {
		return "", goerr.New("generation returned no text")
	}
	return strings.Join(resp.Texts, "\n"), nil
}

// fallbackSummary renders a deterministic digest of the retrieved hits
// when generation is unavailable: top apps by hit count plus the span
// the hits cover
func fallbackSummary(tr TimeRange, hits []*interfaces.Hit) string {
	counts := make(map[string]int)
	var earliest, latest float64
	for i, hit := range hits {
		counts[hit.Document.Metadata.AppName]++
		ts := hit.Document.Metadata.TimestampUnix
		if i == 0 || ts < earliest {
			earliest = ts
		}
		if ts > latest {
			latest = ts
		}
	}

	type appCount struct {
		app   string
		count int
	}
	ranked := make([]appCount, 0, len(counts))
	for app, n := range counts {
		ranked = append(ranked, appCount{app: app, count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].app < ranked[j].app
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(
		"The answer could not be generated, so here is a summary of the %d matching records between %s and %s.\n",
		len(hits), tr.Start.Format(rangeTimeLayout), tr.End.Format(rangeTimeLayout),
	))
	sb.WriteString("Most active applications:\n")
	for _, ac := range ranked {
		sb.WriteString(fmt.Sprintf("- %s: %d records\n", ac.app, ac.count))
	}
	sb.WriteString(fmt.Sprintf("Earliest match: %s\nLatest match: %s",
		time.Unix(int64(earliest), 0).Format(rangeTimeLayout),
		time.Unix(int64(latest), 0).Format(rangeTimeLayout),
	))
	return sb.String()
}
