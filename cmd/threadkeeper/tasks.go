package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alanyang/threadkeeper/internal/wire"
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Deliver due reminders once and exit",
	RunE:  runOnce(wire.TaskDuePoll),
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete reminders past the retention window once and exit",
	RunE:  runOnce(wire.TaskRetention),
}

// runOnce runs a single pass of task without opening the gateway session;
// reminder delivery only needs the REST API.
func runOnce(task string) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
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

		if err := app.Runner.RunNow(ctx, task); err != nil {
			return fmt.Errorf("%s: %w", task, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s completed\n", task)
		return nil
	}
}
