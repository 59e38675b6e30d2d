package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check which Ramp endpoints the granted OAuth scopes can reach",
	RunE:  runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	client := newClient(cfg, false, logger)

	ctx := cmd.Context()
	if err := client.Authenticate(ctx); err != nil {
		return fmt.Errorf("failed to authenticate with Ramp: %w", err)
	}

	for endpoint, ok := range client.CheckAvailableEndpoints(ctx) {
		status := "available"
		if !ok {
			status = "not available (scope not granted)"
		}
		fmt.Printf("%-15s %s\n", endpoint, status)
	}

	return nil
}
