package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mediasweep/internal/media"
	"mediasweep/internal/startup"
)

func newScanCmd() *cobra.Command {
	var (
		asJSON  bool
		recycle bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the library once and print the duplicates found",
		Long: `Scan the library once and print the duplicates found.

The smaller item of each similar pair is reported. Items already in the
recycle bin or marked as kept are not considered.

Examples:
  mediasweep scan
  mediasweep scan --json
  mediasweep scan --recycle     # move every duplicate found to the recycle bin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			config, err := startup.LoadConfig()
			if err != nil {
				return err
			}
			eng, err := openEngine(ctx, config, engineOptions{})
			if err != nil {
				return err
			}
			defer eng.Close()

			results, err := eng.cleaner.Scan(ctx)
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}

			out := cmd.OutOrStdout()
			if recycle && len(results) > 0 {
				ids := make([]string, len(results))
				for i, it := range results {
					ids[i] = it.ID
				}
				n, err := eng.cleaner.Recycle(ctx, ids)
				if err != nil {
					return fmt.Errorf("recycle: %w", err)
				}
				if !asJSON {
					defer fmt.Fprintf(out, "\nMoved %d items to the recycle bin\n", n)
				}
			}

			if asJSON {
				if results == nil {
					results = []media.Item{}
				}
				return writeJSON(out, results)
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "No duplicates found")
				return nil
			}
			return writeItems(out, results, true)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	cmd.Flags().BoolVar(&recycle, "recycle", false, "Move every duplicate found to the recycle bin")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort the scan after this long (0 = no limit)")
	return cmd
}
