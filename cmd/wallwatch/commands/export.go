package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/banshee-data/wallwatch/internal/config"
	"github.com/banshee-data/wallwatch/internal/dashboard"
	"github.com/banshee-data/wallwatch/internal/fsutil"
	"github.com/banshee-data/wallwatch/internal/history"
	"github.com/banshee-data/wallwatch/internal/monitoring"
	"github.com/banshee-data/wallwatch/internal/render"
	"github.com/banshee-data/wallwatch/internal/security"
	"github.com/banshee-data/wallwatch/internal/timeutil"
	"github.com/banshee-data/wallwatch/internal/units"
)

var (
	exportNames   *string
	exportDays    *int
	exportPercent *bool
	exportOut     *string
)

func init() {
	exportNames = exportCmd.Flags().String("names", "", "Comma-separated wall name substrings (default from config).")
	exportDays = exportCmd.Flags().Int("days", 0, "Trailing window in days (default from config).")
	exportPercent = exportCmd.Flags().Bool("percent", false, "Plot percent of capacity instead of count.")
	exportOut = exportCmd.Flags().String("out", "", "Output file: .png, .html or .json (default derived from the title).")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [--names <filter>] [--days <n>] [--percent] [--out <file>]",
	Short: "Renders the dashboard chart to a file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := applyExportFlags(cmd, cfg); err != nil {
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

		job := exportJob{
			Pipeline:   dashboard.Pipeline{SiteTitle: cfg.GetSiteTitle()},
			Inputs:     cfg.DashboardInputs(),
			Today:      timeutil.DateOf(timeutil.RealClock{}.Now().In(loc)),
			Out:        *exportOut,
			AssetsHost: cfg.GetEChartsAssetsHost(),
		}
		path, err := job.Run(cmd.Context(), store, fsutil.OSFileSystem{})
		if err != nil {
			return err
		}
		monitoring.Logf("wrote %s", path)
		return nil
	},
}

// applyExportFlags overlays the chart flags on the config defaults and
// revalidates, so a bad --days fails before anything is loaded.
func applyExportFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	metric := units.MetricCount
	if *exportPercent {
		metric = units.MetricPercent
	}
	config.SetString(&cfg.DefaultFilter, *exportNames, flags.Changed("names"))
	config.SetInt(&cfg.DefaultDays, *exportDays, flags.Changed("days"))
	config.SetString(&cfg.DefaultMetric, metric, flags.Changed("percent"))
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

type exportJob struct {
	Pipeline   dashboard.Pipeline
	Inputs     dashboard.Inputs
	Today      timeutil.Date
	Out        string
	AssetsHost string
}

// Run renders the chart for the job's inputs and writes it to Out, or to a
// PNG named after the chart title. It returns the path written.
func (j exportJob) Run(ctx context.Context, src history.Loader, fsys fsutil.FileSystem) (string, error) {
	table, _, err := history.LoadOrEmpty(ctx, src)
	if err != nil {
		return "", fmt.Errorf("failed to load table: %w", err)
	}
	spec, err := j.Pipeline.Render(dashboard.Reduce(table), j.Inputs, j.Today)
	if err != nil {
		return "", err
	}

	out := j.Out
	if out == "" {
		out = security.ExportFilename(spec.Title, ".png")
	}
	if err := security.ValidateExportPath(out); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	switch ext := strings.ToLower(filepath.Ext(out)); ext {
	case ".png":
		err = render.PNG(&buf, spec, 0, 0)
	case ".html", ".htm":
		err = render.EChartsHTML(&buf, spec, render.EChartsOptions{AssetsHost: j.AssetsHost})
	case ".json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		err = enc.Encode(spec)
	default:
		return "", fmt.Errorf("unsupported export format %q: use .png, .html or .json", ext)
	}
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", out, err)
	}

	if err := fsutil.WriteFileAtomic(fsys, out, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return out, nil
}
