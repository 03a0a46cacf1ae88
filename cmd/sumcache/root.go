package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"sumcache/config"
	"sumcache/internal/app"
	"sumcache/internal/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sumcache",
		Short: "Memoized integer sums",
		Long: `sumcache sums lists of integers and remembers every result, keyed by an
order-independent fingerprint of the input, in SQLite, PostgreSQL or MongoDB.`,
		SilenceUsage: true,
		// Running without a subcommand starts the server.
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(
		newServeCmd(),
		newSumCmd(),
		newLookupCmd(),
		newFingerprintCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads configuration and installs the process logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logging.Setup(logging.Options{Format: cfg.Log.Format, Level: cfg.Log.Level}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withApp builds the application, runs fn and shuts the application down.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, app.Config{AppConfig: cfg})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Shutdown(context.Background()); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()
	return fn(a)
}

// wantsHelp stands in for cobra's help flag on commands that disable flag parsing.
func wantsHelp(args []string) bool {
	return slices.ContainsFunc(args, func(arg string) bool {
		return arg == "-h" || arg == "--help"
	})
}

// parseNumbers converts command-line arguments to integers.
func parseNumbers(args []string) ([]int64, error) {
	numbers := make([]int64, 0, len(args))
	for _, arg := range args {
		n, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a signed 64-bit integer", arg)
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
