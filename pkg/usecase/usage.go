package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/retrace-dev/retrace/pkg/domain/model"
)

// UsageByApp reconstructs per-application active duration from sparse
// observations. Each event's app is considered active from its timestamp
// until the next event (or the end of the interval), a deliberate
// approximation: idle time is attributed to the last observed app.
// Pure function over its inputs; events must be ascending by timestamp
// with known app names, all within [start, end].
func UsageByApp(events []*model.ActivityEvent, start, end time.Time) map[string]time.Duration {
	usage := make(map[string]time.Duration)

	for i, ev := range events {
		next := end
		if i+1 < len(events) && events[i+1].Timestamp.Before(end) {
			next = events[i+1].Timestamp
		}
		d := next.Sub(ev.Timestamp)
		if d < 0 {
			d = 0
		}
		usage[ev.AppName] += d
	}
	return usage
}

// UsageSummary computes per-app usage over the window described by a
// natural-language time expression. An empty result means no data in
// range, not an error.
func (uc *UseCases) UsageSummary(ctx context.Context, rangeText string) (map[string]time.Duration, TimeRange, error) {
	tr := ParseTimeRange(rangeText, uc.now())
	usage, err := uc.UsageBetween(ctx, tr)
	return usage, tr, err
}

// UsageBetween computes per-app usage over an explicit window
func (uc *UseCases) UsageBetween(ctx context.Context, tr TimeRange) (map[string]time.Duration, error) {
	events, err := uc.store.Between(ctx, tr.Start, tr.End)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load events for usage summary")
	}
	return UsageByApp(events, tr.Start, tr.End), nil
}
