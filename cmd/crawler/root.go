package main

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"github.com/user/frontier-crawler/internal/app"
	"github.com/user/frontier-crawler/pkg/config"
	"github.com/user/frontier-crawler/pkg/logger"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawler [flags]",
		Short: "Resumable same-site crawler",
		Long: heredoc.Doc(`
			Crawl one site breadth-first from a seed URL, archiving every rendered page.

			Progress lives in the frontier store, so an interrupted run picks up from
			the last crawled URL when started again.
		`),
		Example: heredoc.Doc(`
			$ crawler --site https://cmlabs.co/ --keys-limit 500
			$ SITE=https://ex.co/ FETCHER=http ARCHIVER=s3 S3_BUCKET=pages crawler
			$ crawler --store memory --metrics-addr :9190
		`),
		Annotations: map[string]string{
			"versionInfo": "1.0",
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := config.Load(c.Flags())
			if err != nil {
				return err
			}

			log, err := logger.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			ctx := c.Context()
			a, err := app.New(ctx, cfg, log)
			if err != nil {
				log.Error("failed to initialise crawler", zap.Error(err))
				return err
			}
			defer a.Close()

			log.Info("crawler starting",
				zap.String("seed", cfg.Seed),
				zap.Int64("keys_limit", cfg.KeysLimit),
				zap.String("store", cfg.FrontierStore),
				zap.String("fetcher", cfg.Fetcher),
				zap.String("archiver", cfg.Archiver),
			)
			if err := a.Run(ctx); err != nil {
				log.Error("crawl stopped", zap.Error(err))
				return err
			}
			log.Info("crawl complete: no pending URLs left")
			return nil
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}
