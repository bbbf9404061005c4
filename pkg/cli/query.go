package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/retrace-dev/retrace/pkg/cli/config"
	"github.com/retrace-dev/retrace/pkg/service/indexer"
	"github.com/retrace-dev/retrace/pkg/usecase"
	"github.com/retrace-dev/retrace/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdQuery() *cli.Command {
	var storeCfg config.Store
	var indexCfg config.Index
	var geminiCfg config.Gemini
	var topK int

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Number of activity records retrieved as context",
			Value:       25,
			Sources:     cli.EnvVars("RETRACE_TOP_K"),
			Destination: &topK,
		},
	}
	flags = append(flags, storeCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)

	return &cli.Command{
		Name:      "query",
		Aliases:   []string{"q"},
		Usage:     "Ask a question about past screen activity",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if question == "" {
				return goerr.New("a question is required")
			}

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

			uc := usecase.New(store, idx, indexer.New(store, idx, llm), llm,
				usecase.WithTopK(topK))

			answer, err := uc.QueryActivity(ctx, question)
			if err != nil {
				return err
			}

			fmt.Println(answer)
			return nil
		},
	}
}
