package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/wallwatch/internal/collector"
	"github.com/banshee-data/wallwatch/internal/config"
	"github.com/banshee-data/wallwatch/internal/monitoring"
	"github.com/banshee-data/wallwatch/internal/provider"
	"github.com/banshee-data/wallwatch/internal/timeutil"
)

var collectEvery *string

func init() {
	collectEvery = collectCmd.Flags().String("every", "", "Keep running and collect on this interval (e.g. 15m). Empty collects once.")
	rootCmd.AddCommand(collectCmd)
}

var collectCmd = &cobra.Command{
	Use:   "collect [--every <interval>]",
	Short: "Fetches the current occupancy snapshot and merges it into the historical table.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		config.SetString(&cfg.CollectEvery, *collectEvery, cmd.Flags().Changed("every"))
		if err := cfg.Validate(); err != nil {
			return err
		}

		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		client := provider.NewClient(provider.Options{
			URL:     cfg.GetProviderURL(),
			Marker:  cfg.GetMarker(),
			Timeout: cfg.GetFetchTimeout(),
		})
		c := collector.New(client, store, timeutil.RealClock{}, loc)

		interval := cfg.GetCollectEvery()
		if interval <= 0 {
			if _, err := c.Run(cmd.Context()); err != nil {
				return fmt.Errorf("collect failed: %w", err)
			}
			return nil
		}

		monitoring.Logf("collecting from %s every %s into %s", client.URL(), interval, cfg.GetTablePath())
		return c.RunEvery(cmd.Context(), interval)
	},
}
