package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/retrace-dev/retrace/pkg/cli/config"
	"github.com/retrace-dev/retrace/pkg/service/indexer"
	"github.com/retrace-dev/retrace/pkg/usecase"
	"github.com/retrace-dev/retrace/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdUsage() *cli.Command {
	var storeCfg config.Store
	var since, until string

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "since",
			Usage:       "Explicit window start (e.g. \"2024-05-15 09:00:00\"), overrides the time expression",
			Destination: &since,
		},
		&cli.StringFlag{
			Name:        "until",
			Usage:       "Explicit window end, defaults to now when only --since is given",
			Destination: &until,
		},
	}
	flags = append(flags, storeCfg.Flags()...)

	return &cli.Command{
		Name:      "usage",
		Aliases:   []string{"u"},
		Usage:     "Show per-application active time over a period",
		ArgsUsage: "[time expression, e.g. \"today\" or \"最近2小时\"]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rangeText := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(rangeText) == "" {
				rangeText = "today"
			}

			store, err := storeCfg.Configure()
			if err != nil {
				return err
			}
			defer safe.Close(ctx, store)

			uc := usecase.New(store, nil, indexer.New(store, nil, nil), nil)

			var usage map[string]time.Duration
			var tr usecase.TimeRange
			if since != "" || until != "" {
				tr, err = explicitRange(since, until)
				if err != nil {
					return err
				}
				usage, err = uc.UsageBetween(ctx, tr)
			} else {
				usage, tr, err = uc.UsageSummary(ctx, rangeText)
			}
			if err != nil {
				return err
			}

			fmt.Printf("Application usage from %s to %s\n",
				tr.Start.Format("2006-01-02 15:04:05"),
				tr.End.Format("2006-01-02 15:04:05"))

			if len(usage) == 0 {
				fmt.Println("No activity data in this period.")
				return nil
			}

			type row struct {
				app string
				d   time.Duration
			}
			rows := make([]row, 0, len(usage))
			for app, d := range usage {
				rows = append(rows, row{app: app, d: d})
			}
			sort.Slice(rows, func(i, j int) bool {
				if rows[i].d != rows[j].d {
					return rows[i].d > rows[j].d
				}
				return rows[i].app < rows[j].app
			})

			for _, r := range rows {
				fmt.Printf("%-20s %s\n", r.app, r.d.Round(time.Second))
			}
			return nil
		},
	}
}

var rangeFlagLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

func parseRangeFlag(value string) (time.Time, error) {
	for _, layout := range rangeFlagLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, goerr.New("unrecognized time value", goerr.V("value", value))
}

func explicitRange(since, until string) (usecase.TimeRange, error) {
	tr := usecase.TimeRange{End: time.Now()}

	if since != "" {
		start, err := parseRangeFlag(since)
		if err != nil {
			return tr, err
		}
		tr.Start = start
	}
	if until != "" {
		end, err := parseRangeFlag(until)
		if err != nil {
			return tr, err
		}
		tr.End = end
	}
	if tr.Start.IsZero() {
		tr.Start = tr.End.Add(-24 * time.Hour)
	}
	if tr.Start.After(tr.End) {
		return tr, goerr.New("--since must not be after --until")
	}
	return tr, nil
}
