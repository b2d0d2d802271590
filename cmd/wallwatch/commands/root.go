// Package commands implements the wallwatch command line.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/wallwatch/internal/config"
	"github.com/banshee-data/wallwatch/internal/db"
	"github.com/banshee-data/wallwatch/internal/history"
	"github.com/banshee-data/wallwatch/internal/monitoring"
)

var rootCmd = &cobra.Command{
	Use:   "wallwatch",
	Short: "wallwatch records climbing wall occupancy and charts it.",
	Long: `wallwatch polls a wall occupancy provider, keeps every reading in a
historical table (CSV or SQLite) and serves a dashboard of daily peaks.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if *quiet {
			monitoring.SetLogger(nil)
		}
	},
}

var (
	configPath *string
	tablePath  *string
	storeKind  *string
	quiet      *bool
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "", "Path to a .json or .yaml config file.")
	tablePath = rootCmd.PersistentFlags().String("table", "", "Historical table path (default walls.csv, or walls.db for sqlite).")
	storeKind = rootCmd.PersistentFlags().String("store", "", "Table store: csv or sqlite.")
	quiet = rootCmd.PersistentFlags().Bool("quiet", false, "Suppress diagnostic logging; errors are still printed.")
}

// ExecuteContext runs the command line with ctx and exits non-zero on error.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, if any, and applies the persistent flag
// overrides. Flags win over file values.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := &config.Config{}
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	config.SetString(&cfg.TablePath, *tablePath, flags.Changed("table"))
	config.SetString(&cfg.Store, *storeKind, flags.Changed("store"))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// openStore opens the configured table store.
func openStore(cfg *config.Config) (history.Store, error) {
	path := cfg.GetTablePath()
	switch cfg.GetStore() {
	case config.StoreSQLite:
		d, err := db.NewDB(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database %s: %w", path, err)
		}
		return d, nil
	default:
		return history.NewCSVStore(nil, path), nil
	}
}
