package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/retrace-dev/retrace/pkg/domain/types"
)

// EmbeddingDimension is the vector size requested from the embedding backend
const EmbeddingDimension = 768

// MetaAbsent is the sentinel stored for absent metadata values. The index
// backend only accepts primitive values, never a language-level null.
const MetaAbsent = "N/A"

const (
	maxTitleMetaLen = 200
	maxURLMetaLen   = 250
)

// DocumentKey derives the stable index key for an event id. Reindexing the
// same id upserts under the same key, so repeats are a no-op.
func DocumentKey(eventID int64) string {
	return fmt.Sprintf("record_%d", eventID)
}

// Metadata is the primitive-only projection of an event stored beside the
// document text. The timestamp is duplicated as an ISO string for display
// and as a numeric epoch for range filtering.
type Metadata struct {
	TimestampISO  string
	TimestampUnix float64
	RecordType    string
	AppName       string
	WindowTitle   string
	URL           string
	EventID       int64
}

// Document is the embeddable, searchable projection of an ActivityEvent,
// 1:1 by event id. It may be rebuilt from the event log at any time.
type Document struct {
	Key       string
	EventID   int64
	Text      string
	Metadata  Metadata
	Embedding []float64
}

// BuildDocument converts an event into its indexable document. The text is
// a concatenation of labeled fields; absent or Unknown values are skipped.
// Returns nil when no derivable text remains (the caller still advances
// its high-water mark past such events).
func BuildDocument(ev *ActivityEvent) *Document {
	var parts []string
	if ev.AppName != "" && ev.AppName != types.AppUnknown {
		parts = append(parts, "App: "+ev.AppName)
	}
	if ev.WindowTitle != "" && ev.WindowTitle != types.AppUnknown {
		parts = append(parts, "Window: "+ev.WindowTitle)
	}
	if ev.PageTitle != "" {
		parts = append(parts, "Page: "+ev.PageTitle)
	}
	if ev.URL != "" {
		parts = append(parts, "URL: "+ev.URL)
	}
	if text := strings.TrimSpace(ev.OCRText); text != "" {
		parts = append(parts, "Content: "+text)
	}

	text := strings.Join(parts, " | ")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	return &Document{
		Key:      DocumentKey(ev.ID),
		EventID:  ev.ID,
		Text:     text,
		Metadata: buildMetadata(ev),
	}
}

func buildMetadata(ev *ActivityEvent) Metadata {
	meta := Metadata{
		TimestampISO:  ev.Timestamp.Format(time.RFC3339),
		TimestampUnix: float64(ev.Timestamp.UnixNano()) / float64(time.Second),
		RecordType:    string(ev.RecordType),
		AppName:       ev.AppName,
		WindowTitle:   truncate(ev.WindowTitle, maxTitleMetaLen),
		URL:           truncate(ev.URL, maxURLMetaLen),
		EventID:       ev.ID,
	}
	if meta.AppName == "" {
		meta.AppName = types.AppUnknown
	}
	if meta.WindowTitle == "" {
		meta.WindowTitle = MetaAbsent
	}
	if meta.URL == "" {
		meta.URL = MetaAbsent
	}
	return meta
}

// truncate cuts s to at most limit bytes without splitting a rune
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
