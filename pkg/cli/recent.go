package cli

import (
	"context"
	"fmt"

	"github.com/retrace-dev/retrace/pkg/cli/config"
	"github.com/retrace-dev/retrace/pkg/service/indexer"
	"github.com/retrace-dev/retrace/pkg/usecase"
	"github.com/retrace-dev/retrace/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdRecent() *cli.Command {
	var storeCfg config.Store
	var limit int

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Number of events to show",
			Value:       20,
			Destination: &limit,
		},
	}
	flags = append(flags, storeCfg.Flags()...)

	return &cli.Command{
		Name:  "recent",
		Usage: "Show the most recent activity events",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			store, err := storeCfg.Configure()
			if err != nil {
				return err
			}
			defer safe.Close(ctx, store)

			uc := usecase.New(store, nil, indexer.New(store, nil, nil), nil)

			events, err := uc.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("No events recorded yet.")
				return nil
			}

			for _, ev := range events {
				line := fmt.Sprintf("%s  %-17s %-10s %s",
					ev.Timestamp.Format("2006-01-02 15:04:05"),
					ev.RecordType, ev.AppName, ev.WindowTitle)
				if ev.URL != "" {
					line += "  " + ev.URL
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}
