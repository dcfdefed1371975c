package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mediasweep/internal/logging"
)

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	root := &cobra.Command{
		Use:   "mediasweep",
		Short: "Find duplicate photos and videos and manage a recycle bin",
		Long: `mediasweep scans a media library for near-duplicate photos and videos.
Duplicates can be moved to a recycle bin, restored, or permanently deleted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				if err := os.Setenv("CONFIG_PATH", configPath); err != nil {
					return fmt.Errorf("set CONFIG_PATH: %w", err)
				}
			}
			switch {
			case logLevel != "":
				logging.SetLevel(logging.ParseLevel(logLevel))
			case cmd.Name() != "serve" && os.Getenv("LOG_LEVEL") == "" && os.Getenv("DEBUG") == "":
				// One-shot commands print results on stdout; keep stderr for problems.
				logging.SetLevel(logging.LevelWarn)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (overrides CONFIG_PATH)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides LOG_LEVEL)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newScanCmd())
	root.AddCommand(newBinCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
