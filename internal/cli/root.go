// Package cli wires the batch command surface: export, probe, and serve.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nwafound/ramp-bc-export/internal/config"
	"github.com/nwafound/ramp-bc-export/internal/ramp"
	"github.com/nwafound/ramp-bc-export/pkg/utils"
)

var (
	cfgFile string
	verbose bool

	rootCmd = &cobra.Command{
		Use:   "rampbc",
		Short: "Ramp to Business Central journal exporter",
		Long: `rampbc pulls card transactions, bills, reimbursements, cashbacks and
statements from the Ramp API and renders them as Business Central general
journal import batches (CSV for import, XLSX for review).`,
		SilenceUsage: true,
	}
)

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.toml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// setup loads configuration and builds the logger every subcommand shares.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Logger.Level
	if verbose {
		level = "debug"
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger, nil
}

// newClient builds a Ramp client from config. Live accounting writes stay
// off unless the command explicitly opts in.
func newClient(cfg *config.Config, enableSync bool, logger *zap.Logger) *ramp.Client {
	return ramp.NewClient(ramp.Config{
		BaseURL:      cfg.Ramp.BaseURL,
		TokenURL:     cfg.Ramp.TokenURL,
		ClientID:     cfg.Ramp.ClientID,
		ClientSecret: cfg.Ramp.ClientSecret,
		PageSize:     cfg.Ramp.PageSize,
		EnableSync:   enableSync,
	}, logger)
}
