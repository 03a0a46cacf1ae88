package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sumcache/internal/app"
	"sumcache/internal/core"
	"sumcache/internal/fingerprint"
	"sumcache/internal/version"
)

func newSumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sum [numbers...]",
		Short: "Sum integers through the configured store and print the result",
		Example: `  sumcache sum 3 1 2
  sumcache sum -5 10`,
		// Negative numbers would otherwise be parsed as flags.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if wantsHelp(args) {
				return cmd.Help()
			}
			numbers, err := parseNumbers(args)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app.App) error {
				res, err := a.Memoizer().ComputeOrFetch(cmd.Context(), numbers)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), core.SumResponse{Sum: res.Sum, Cached: res.Cached})
			})
		},
	}
}

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <fingerprint>",
		Short: "Print the stored computation for a fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fp, ok := fingerprint.Parse(args[0])
			if !ok {
				return fmt.Errorf("%q is not a valid fingerprint", args[0])
			}
			return withApp(cmd.Context(), func(a *app.App) error {
				rec, err := a.Memoizer().Lookup(cmd.Context(), fp)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), core.RecordResponse{
					Fingerprint: rec.Fingerprint.String(),
					RawInput:    rec.RawInput,
					Result:      rec.Result,
					CreatedAt:   rec.CreatedAt.UTC().Format(time.RFC3339Nano),
				})
			})
		},
	}
}

func newFingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "fingerprint [numbers...]",
		Short:              "Print the fingerprint of a list without touching storage",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if wantsHelp(args) {
				return cmd.Help()
			}
			numbers, err := parseNumbers(args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), fingerprint.Of(numbers))
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}
