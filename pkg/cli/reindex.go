package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/retrace-dev/retrace/pkg/cli/config"
	"github.com/retrace-dev/retrace/pkg/service/indexer"
	"github.com/retrace-dev/retrace/pkg/usecase"
	"github.com/retrace-dev/retrace/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdReindex() *cli.Command {
	var storeCfg config.Store
	var indexCfg config.Index
	var geminiCfg config.Gemini
	var rebuild bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "rebuild",
			Usage:       "Drop the index and rebuild it from the full event log",
			Destination: &rebuild,
		},
	}
	flags = append(flags, storeCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)

	return &cli.Command{
		Name:  "reindex",
		Usage: "Catch the vector index up with the event log",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			store, err := storeCfg.Configure()
			if err != nil {
				return err
			}
			defer safe.Close(ctx, store)

			idx, err := indexCfg.Configure()
			if err != nil {
				return err
			}
			defer safe.Close(ctx, idx)

			llm, err := geminiCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if llm == nil {
				return goerr.New("reindexing requires a configured Gemini project")
			}

			uc := usecase.New(store, idx, indexer.New(store, idx, llm), llm)

			n, err := uc.Reindex(ctx, rebuild)
			if err != nil {
				return err
			}

			fmt.Printf("Indexed %d documents.\n", n)
			return nil
		},
	}
}
