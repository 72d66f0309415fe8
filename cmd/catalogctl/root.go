// cmd/catalogctl/root.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"catalog-sync/internal/app"
	"catalog-sync/internal/config"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:          "catalogctl",
	Short:        "Operate the catalog cache",
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn or error")
}

func newLogger() *slog.Logger {
	level := new(slog.LevelVar)
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level.Set(slog.LevelWarn)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// withApp loads the configuration and assembles the components with cache
// writes applied inline, so nothing is left queued when the command exits.
func withApp(ctx context.Context, fn func(*app.App, *slog.Logger) error) error {
	logger := newLogger()
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a, err := app.New(ctx, cfg, logger, app.Options{InlineWrites: true})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a, logger)
}
