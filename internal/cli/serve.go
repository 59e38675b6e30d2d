package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nwafound/ramp-bc-export/internal/export"
	"github.com/nwafound/ramp-bc-export/internal/exporter"
	"github.com/nwafound/ramp-bc-export/internal/server"
)

var serveEnableSync bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interactive export dashboard",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveEnableSync, "enable-sync", false, "allow live writes to Ramp from dashboard export requests")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	client := newClient(cfg, serveEnableSync, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := client.Authenticate(ctx); err != nil {
		return fmt.Errorf("failed to authenticate with Ramp: %w", err)
	}

	runner := exporter.NewRunner(client, cfg, export.NewWriter(cfg.Export.OutputDir, logger), logger)
	return server.NewServer(cfg, client, runner, logger).Start(ctx)
}
