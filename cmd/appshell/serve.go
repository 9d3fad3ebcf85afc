package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/marmos91/appshell/internal/logger"
	"github.com/marmos91/appshell/pkg/bridge"
	"github.com/marmos91/appshell/pkg/config"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var usageInterval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Keep the sandbox open and expose metrics until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), opts.cfg, usageInterval)
		},
	}

	cmd.Flags().DurationVar(&usageInterval, "usage-interval", 30*time.Second, "how often quota usage is sampled (0 to disable)")
	return cmd
}

// serve runs until ctx is cancelled. Metrics must be initialized before the
// bridge so storage backends pick up the registry.
func serve(ctx context.Context, cfg *config.Config, usageInterval time.Duration) error {
	m := config.InitializeMetrics(cfg)

	b, err := config.CreateBridge(ctx, cfg, m.Bridge)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Error("Failed to close sandbox: %v", err)
		}
	}()

	if _, err := b.Roots().EnsureRoot(ctx); err != nil {
		return fmt.Errorf("failed to open sandbox: %w", err)
	}
	logger.Info("Sandbox ready (storage=%s). Press Ctrl+C to stop.", cfg.Storage.Type)

	g, gctx := errgroup.WithContext(ctx)

	if m.Server != nil {
		g.Go(func() error { return m.Server.Start(gctx) })
	}

	if usageInterval > 0 {
		g.Go(func() error {
			sampleUsage(gctx, b, usageInterval)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, closing sandbox...")
		return nil
	})

	return g.Wait()
}

func sampleUsage(ctx context.Context, b *bridge.Bridge, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	b.RefreshUsage(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.RefreshUsage(ctx)
		}
	}
}
