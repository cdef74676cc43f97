package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alanyang/threadkeeper/internal/config"
	"github.com/alanyang/threadkeeper/internal/observ"
	"github.com/alanyang/threadkeeper/internal/wire"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "threadkeeper",
	Short:         "Discord bot for recruitment threads, reminders and EVE SSO nicknames",
	Version:       wire.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment (missing is fine)")
	rootCmd.AddCommand(runCmd, pollCmd, sweepCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and installs the process logger. The returned
// func flushes the log file sink.
func setup() (config.Config, func(), error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, closer, err := observ.NewLogger(cfg.Log, os.Stdout)
	if err != nil {
		return config.Config{}, nil, err
	}
	slog.SetDefault(logger)
	return cfg, func() { closer.Close() }, nil
}
