package cli

import (
	"context"
	"fmt"

	"github.com/retrace-dev/retrace/pkg/cli/config"
	"github.com/retrace-dev/retrace/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var storeCfg config.Store

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Apply pending schema migrations to the activity log",
		Flags:   storeCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			// Opening the store runs the additive migration
			store, err := storeCfg.Configure()
			if err != nil {
				return err
			}
			defer safe.Close(ctx, store)

			fmt.Println("Schema is up to date.")
			return nil
		},
	}
}
