package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/tierlab/internal/analytics"
	"github.com/abhisek/tierlab/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assessment API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		tracker, err := d.tracker(ctx)
		if err != nil {
			return err
		}

		opts := analytics.DefaultOptions()
		opts.ConfidentAt = d.cfg.Analytics.ConfidentAt

		srv, err := server.NewServer(tracker, d.tables, opts, d.log, d.cfg.Server)
		if err != nil {
			return fmt.Errorf("build server: %w", err)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), d.cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil {
			return err
		}
		d.log.Info("server stopped", zap.Duration("shutdown_timeout", d.cfg.Server.ShutdownTimeout))
		return nil
	},
}
