package usecase_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/retrace-dev/retrace/pkg/usecase"
)

func withinSecond(t *testing.T, got, want time.Time) {
	t.Helper()
	diff := got.Sub(want)
	if diff < 0 {
		diff = -diff
	}
	gt.Bool(t, diff <= time.Second).True()
}

func TestParseTimeRangeDurations(t *testing.T) {
	now := time.Date(2024, 5, 15, 14, 30, 0, 0, time.UTC)

	cases := []struct {
		text string
		want time.Duration
	}{
		{"最近5分钟我在做什么", 5 * time.Minute},
		{"过去5分钟我在做什么", 5 * time.Minute},
		{"最近一小时浏览了哪些网页", time.Hour},
		{"过去十天的活动", 10 * 24 * time.Hour},
		{"最近2周我常用哪些应用", 2 * 7 * 24 * time.Hour},
		{"过去1月的总结", 30 * 24 * time.Hour},
		{"what did I do in the last 5 minutes", 5 * time.Minute},
		{"pages I visited in the past 3 hours", 3 * time.Hour},
		{"apps used in the last two days", 2 * 24 * time.Hour},
		{"summary of the past one month", 30 * 24 * time.Hour},
	}

	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			tr := usecase.ParseTimeRange(tc.text, now)
			withinSecond(t, tr.End, now)
			withinSecond(t, tr.Start, now.Add(-tc.want))
		})
	}
}

func TestParseTimeRangeDayLiterals(t *testing.T) {
	now := time.Date(2024, 5, 15, 14, 30, 0, 0, time.UTC)
	midnight := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

	t.Run("today spans midnight to now", func(t *testing.T) {
		tr := usecase.ParseTimeRange("今天我在做什么", now)
		gt.Bool(t, tr.Start.Equal(midnight)).True()
		gt.Bool(t, tr.End.Equal(now)).True()

		tr = usecase.ParseTimeRange("what did I work on today", now)
		gt.Bool(t, tr.Start.Equal(midnight)).True()
		gt.Bool(t, tr.End.Equal(now)).True()
	})

	t.Run("yesterday spans the full previous day", func(t *testing.T) {
		tr := usecase.ParseTimeRange("昨天浏览了哪些网页", now)
		gt.Bool(t, tr.Start.Equal(midnight.AddDate(0, 0, -1))).True()
		gt.Bool(t, tr.End.Equal(midnight)).True()
	})
}

func TestParseTimeRangePhraseAnchor(t *testing.T) {
	now := time.Date(2024, 5, 15, 14, 30, 0, 0, time.UTC)

	// No day literal and no "last N unit" phrase, so the anchor must come
	// from general phrase extraction
	tr := usecase.ParseTimeRange("what did I do since 9am", now)
	gt.Bool(t, tr.End.Equal(now)).True()
	gt.Value(t, tr.Start.Hour()).Equal(9)
	gt.Value(t, tr.Start.Day()).Equal(now.Day())
	gt.Bool(t, tr.Start.Before(now)).True()
}

func TestParseTimeRangeFallbacks(t *testing.T) {
	now := time.Date(2024, 5, 15, 14, 30, 0, 0, time.UTC)

	t.Run("unparseable text takes the default window", func(t *testing.T) {
		tr := usecase.ParseTimeRange("which documents did I edit", now)
		gt.Bool(t, tr.End.Equal(now)).True()
		withinSecond(t, tr.Start, now.Add(-usecase.DefaultWindow))
	})

	t.Run("future anchors are rejected", func(t *testing.T) {
		tr := usecase.ParseTimeRange("what will I do tomorrow", now)
		gt.Bool(t, tr.End.Equal(now)).True()
		withinSecond(t, tr.Start, now.Add(-usecase.DefaultWindow))
	})

	t.Run("start never exceeds end", func(t *testing.T) {
		for _, text := range []string{"", "今天", "最近十月", "last 0 minutes", "at noon"} {
			tr := usecase.ParseTimeRange(text, now)
			gt.Bool(t, tr.Start.After(tr.End)).False()
		}
	})
}
