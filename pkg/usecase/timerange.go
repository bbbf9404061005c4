package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DefaultWindow is the trailing window used when a question carries no
// recognizable time expression
const DefaultWindow = 24 * time.Hour

// TimeRange is a resolved [Start, End] query window
type TimeRange struct {
	Start time.Time
	End   time.Time
}

var (
	zhDurationRe = regexp.MustCompile(`(?:最近|过去)\s*([\d一二三四五六七八九十]+)\s*(分钟|小时|天|周|月)`)
	enDurationRe = regexp.MustCompile(`(?i)(?:last|past)\s+([\d]+|one|two|three|four|five|six|seven|eight|nine|ten)\s+(minutes?|hours?|days?|weeks?|months?)`)

	zhNumerals = map[string]int{
		"一": 1, "二": 2, "三": 3, "四": 4, "五": 5,
		"六": 6, "七": 7, "八": 8, "九": 9, "十": 10,
	}
	enNumerals = map[string]int{
		"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
		"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	}

	unitDurations = map[string]time.Duration{
		"分钟": time.Minute, "minute": time.Minute,
		"小时": time.Hour, "hour": time.Hour,
		"天": 24 * time.Hour, "day": 24 * time.Hour,
		"周": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour,
		// A month is approximated as 30 days
		"月": 30 * 24 * time.Hour, "month": 30 * 24 * time.Hour,
	}

	nlParser = newNLParser()
)

func newNLParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ParseTimeRange resolves a natural-language time expression inside the
// question into a concrete window, trying in order: day literals, a
// "last/past N unit" duration phrase (Chinese or English), general
// date/time phrase extraction, and finally a default trailing window.
// The result always satisfies Start <= End.
func ParseTimeRange(text string, now time.Time) TimeRange {
	r := parseTimeRange(text, now)
	if r.Start.After(r.End) {
		r.Start = r.End.Add(-time.Second)
	}
	return r
}

func parseTimeRange(text string, now time.Time) TimeRange {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(text, "今天") || containsWord(lower, "today"):
		return TimeRange{Start: midnight, End: now}
	case strings.Contains(text, "昨天") || containsWord(lower, "yesterday"):
		return TimeRange{Start: midnight.AddDate(0, 0, -1), End: midnight}
	}

	if d, ok := parseDuration(text); ok {
		return TimeRange{Start: now.Add(-d), End: now}
	}

	// General phrase extraction: accept only anchors at or before now,
	// since the log never contains the future
	if result, err := nlParser.Parse(text, now); err == nil && result != nil && !result.Time.After(now) {
		return TimeRange{Start: result.Time, End: now}
	}

	return TimeRange{Start: now.Add(-DefaultWindow), End: now}
}

func parseDuration(text string) (time.Duration, bool) {
	if m := zhDurationRe.FindStringSubmatch(text); m != nil {
		if n, ok := parseCount(m[1], zhNumerals); ok {
			return time.Duration(n) * unitDurations[m[2]], true
		}
	}
	if m := enDurationRe.FindStringSubmatch(text); m != nil {
		if n, ok := parseCount(strings.ToLower(m[1]), enNumerals); ok {
			unit := strings.TrimSuffix(strings.ToLower(m[2]), "s")
			return time.Duration(n) * unitDurations[unit], true
		}
	}
	return 0, false
}

func parseCount(s string, numerals map[string]int) (int, bool) {
	if n, ok := numerals[s]; ok {
		return n, true
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n, true
	}
	return 0, false
}

func containsWord(text, word string) bool {
	for _, f := range strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z')
	}) {
		if f == word {
			return true
		}
	}
	return false
}
