package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alanyang/threadkeeper/internal/wire"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Discord and run the periodic tasks and the ops server",
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, flush, err := setup()
	if err != nil {
		return err
	}
	defer flush()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := wire.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	defer app.Close()

	if err := app.Bot.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := app.Bot.Close(); err != nil {
			slog.Error("gateway close error", "error", err)
		}
	}()

	app.Runner.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("ops server listening", "addr", app.Server.Addr)
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			slog.Error("ops server error", "error", err)
		}
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		slog.Error("ops server shutdown error", "error", err)
	}
	app.Runner.Wait()

	slog.Info("threadkeeper stopped")
	return nil
}
