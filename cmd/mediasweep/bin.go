package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mediasweep/internal/recyclebin"
	"mediasweep/internal/startup"
)

// errConfirmationRequired is returned by destructive commands run without --yes.
var errConfirmationRequired = errors.New("refusing to continue without --yes")

func newBinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bin",
		Short: "Manage the recycle bin",
		Long: `Manage the recycle bin.

Examples:
  mediasweep bin list
  mediasweep bin restore 2f6c...           # put an item back
  mediasweep bin delete 2f6c...            # delete one item for good
  mediasweep bin delete-all --yes          # delete everything in the bin
  mediasweep bin empty --yes               # forget all entries, delete nothing`,
	}

	cmd.AddCommand(newBinListCmd())
	cmd.AddCommand(newBinRestoreCmd())
	cmd.AddCommand(newBinDeleteCmd())
	cmd.AddCommand(newBinDeleteAllCmd())
	cmd.AddCommand(newBinEmptyCmd())
	return cmd
}

// withEngine loads configuration and opens the engine around fn.
func withEngine(cmd *cobra.Command, fn func(eng *engine) error) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	config, err := startup.LoadConfig()
	if err != nil {
		return err
	}
	eng, err := openEngine(ctx, config, engineOptions{})
	if err != nil {
		return err
	}
	defer eng.Close()

	cmd.SetContext(ctx)
	return fn(eng)
}

func newBinListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List items in the recycle bin",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(eng *engine) error {
				items := eng.bin.Items()
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, items)
				}
				if len(items) == 0 {
					fmt.Fprintln(out, "Recycle bin is empty")
					return nil
				}
				if err := writeItems(out, items, false); err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%d items, %s\n", eng.bin.Count(), humanSize(eng.bin.TotalSize()))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print items as JSON")
	return cmd
}

func newBinRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>...",
		Short: "Restore items from the recycle bin",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(eng *engine) error {
				var errs []error
				for _, id := range args {
					item, err := eng.bin.Restore(cmd.Context(), id)
					if err != nil {
						errs = append(errs, fmt.Errorf("restore %s: %w", id, err))
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", item.Ref())
				}
				return errors.Join(errs...)
			})
		},
	}
}

func newBinDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Permanently delete items from the recycle bin",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(eng *engine) error {
				var errs []error
				for _, id := range args {
					if err := eng.bin.PermanentlyDelete(cmd.Context(), id); err != nil {
						errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
				}
				return errors.Join(errs...)
			})
		},
	}
}

func newBinDeleteAllCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Permanently delete everything in the recycle bin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errConfirmationRequired
			}
			return withEngine(cmd, func(eng *engine) error {
				report, err := eng.bin.PermanentlyDeleteAll(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d of %d items, freed %s\n",
					report.Deleted, report.Attempted, humanSize(report.FreedBytes))

				var batchErr *recyclebin.BatchError
				if errors.As(err, &batchErr) {
					fmt.Fprintf(cmd.OutOrStdout(), "%d items remain in the recycle bin\n", batchErr.Remaining)
				}
				return err
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm permanent deletion")
	return cmd
}

func newBinEmptyCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "empty",
		Short: "Forget every recycle bin entry without deleting files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errConfirmationRequired
			}
			return withEngine(cmd, func(eng *engine) error {
				n := eng.bin.Count()
				eng.bin.EmptyRecycleBin(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries from the recycle bin\n", n)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm")
	return cmd
}
