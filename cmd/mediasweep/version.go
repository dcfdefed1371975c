package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediasweep/internal/startup"
)

func newVersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := startup.GetBuildInfo()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mediasweep %s (commit %s, built %s, %s)\n",
				info.Version, info.Commit, info.BuildTime, info.GoVersion)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
