package model_test

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/gt"
	"github.com/retrace-dev/retrace/pkg/domain/model"
	"github.com/retrace-dev/retrace/pkg/domain/types"
)

func TestDocumentKey(t *testing.T) {
	gt.Value(t, model.DocumentKey(42)).Equal("record_42")
	gt.Value(t, model.DocumentKey(42)).Equal(model.DocumentKey(42))
}

func TestBuildDocument(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local)

	t.Run("labeled concatenation", func(t *testing.T) {
		ev := &model.ActivityEvent{
			ID:          7,
			Timestamp:   ts,
			RecordType:  types.RecordScreenContent,
			TriggeredBy: types.TriggerTimer,
			AppName:     "Chrome",
			WindowTitle: "Invoices - Chrome",
			URL:         "https://billing.example.com/invoices",
			OCRText:     "invoice total $42",
		}

		doc := model.BuildDocument(ev)
		gt.Value(t, doc).NotNil()
		gt.Value(t, doc.Key).Equal("record_7")
		gt.Value(t, doc.EventID).Equal(int64(7))
		gt.Bool(t, strings.Contains(doc.Text, "App: Chrome")).True()
		gt.Bool(t, strings.Contains(doc.Text, "Window: Invoices - Chrome")).True()
		gt.Bool(t, strings.Contains(doc.Text, "URL: https://billing.example.com/invoices")).True()
		gt.Bool(t, strings.Contains(doc.Text, "Content: invoice total $42")).True()
	})

	t.Run("unknown app and blank text yield nil", func(t *testing.T) {
		ev := &model.ActivityEvent{
			ID:          8,
			Timestamp:   ts,
			RecordType:  types.RecordScreenContent,
			TriggeredBy: types.TriggerTimer,
			AppName:     types.AppUnknown,
			WindowTitle: types.AppUnknown,
			OCRText:     "   ",
		}
		gt.Value(t, model.BuildDocument(ev)).Nil()
	})

	t.Run("metadata narrows to primitives with sentinel", func(t *testing.T) {
		ev := &model.ActivityEvent{
			ID:          9,
			Timestamp:   ts,
			RecordType:  types.RecordScreenContent,
			TriggeredBy: types.TriggerTimer,
			AppName:     "VSCode",
			OCRText:     "func main()",
		}

		doc := model.BuildDocument(ev)
		gt.Value(t, doc).NotNil()
		gt.Value(t, doc.Metadata.AppName).Equal("VSCode")
		gt.Value(t, doc.Metadata.WindowTitle).Equal(model.MetaAbsent)
		gt.Value(t, doc.Metadata.URL).Equal(model.MetaAbsent)
		gt.Value(t, doc.Metadata.RecordType).Equal("screen_content")
		gt.Value(t, doc.Metadata.TimestampISO).Equal(ts.Format(time.RFC3339))
		gt.Value(t, doc.Metadata.TimestampUnix).Equal(float64(ts.Unix()))
	})

	t.Run("long window title truncated in metadata", func(t *testing.T) {
		ev := &model.ActivityEvent{
			ID:          10,
			Timestamp:   ts,
			RecordType:  types.RecordScreenContent,
			TriggeredBy: types.TriggerTimer,
			AppName:     "Chrome",
			WindowTitle: strings.Repeat("x", 500),
			OCRText:     "text",
		}

		doc := model.BuildDocument(ev)
		gt.Value(t, doc).NotNil()
		gt.Value(t, len(doc.Metadata.WindowTitle)).Equal(200)
	})

	t.Run("truncation never splits a multibyte rune", func(t *testing.T) {
		// 100 three-byte runes: the 200-byte limit lands mid-rune
		ev := &model.ActivityEvent{
			ID:          11,
			Timestamp:   ts,
			RecordType:  types.RecordScreenContent,
			TriggeredBy: types.TriggerTimer,
			AppName:     "Chrome",
			WindowTitle: strings.Repeat("页", 100),
			URL:         "https://example.com/" + strings.Repeat("档", 100),
			OCRText:     "text",
		}

		doc := model.BuildDocument(ev)
		gt.Value(t, doc).NotNil()
		gt.Bool(t, utf8.ValidString(doc.Metadata.WindowTitle)).True()
		gt.Bool(t, len(doc.Metadata.WindowTitle) <= 200).True()
		gt.Bool(t, utf8.ValidString(doc.Metadata.URL)).True()
		gt.Bool(t, len(doc.Metadata.URL) <= 250).True()
	})
}
