package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"releasesync/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "releasesync",
		Short:        "Ingest upcoming game and book releases into the item store",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnvFiles()
		},
	}
	root.AddCommand(newRunCmd(), newScheduleCmd())
	return root
}
