package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/goerr/v2"
	"github.com/retrace-dev/retrace/pkg/cli/config"
	"github.com/retrace-dev/retrace/pkg/domain/model"
	"github.com/retrace-dev/retrace/pkg/service/capture"
	"github.com/retrace-dev/retrace/pkg/service/indexer"
	"github.com/retrace-dev/retrace/pkg/utils/async"
	"github.com/retrace-dev/retrace/pkg/utils/logging"
	"github.com/retrace-dev/retrace/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdRecord() *cli.Command {
	var storeCfg config.Store
	var indexCfg config.Index
	var geminiCfg config.Gemini
	var captureCfg config.Capture

	var flags []cli.Flag
	flags = append(flags, storeCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, captureCfg.Flags()...)

	return &cli.Command{
		Name:    "record",
		Aliases: []string{"r"},
		Usage:   "Start recording screen activity",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			logger.Info("record configuration",
				"store", storeCfg,
				"index", indexCfg,
				"capture", captureCfg,
			)

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
				logger.Warn("Gemini not configured, events will be stored but not indexed")
			}

			scheduler := capture.New(
				store, indexer.New(store, idx, llm),
				captureCfg.Inspector(), captureCfg.Grabber(), captureCfg.Extractor(),
				captureCfg.SchedulerConfig(),
			)

			sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			// The scheduler keeps the app context: shutdown goes through
			// Stop so queued clicks still drain after the signal
			scheduler.Start(ctx)

			clicks := captureCfg.ClickListener()
			if clicks.Enabled() {
				// The listener follows the signal context so the helper
				// process dies with the recorder
				async.Dispatch(sigCtx, func(context.Context) error {
					if err := clicks.Listen(sigCtx, func(click model.Click) {
						scheduler.EnqueueClick(sigCtx, click)
					}); err != nil {
						return goerr.Wrap(err, "click listener stopped")
					}
					return nil
				})
			} else {
				logger.Info("no click helper configured, capturing on timer only")
			}

			<-sigCtx.Done()
			logger.Info("shutting down, draining capture queue")
			scheduler.Stop()
			return nil
		},
	}
}
