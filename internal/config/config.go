// Package config loads the optional JSON or YAML configuration file shared by
// every wallwatch command.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/wallwatch/internal/dashboard"
	"github.com/banshee-data/wallwatch/internal/provider"
	"github.com/banshee-data/wallwatch/internal/units"
)

// Store kinds.
const (
	StoreCSV    = "csv"
	StoreSQLite = "sqlite"
)

// maxFileSize caps config reads.
const maxFileSize = 1 * 1024 * 1024

// Config is the optional wallwatch configuration file. Every field is a
// pointer so that omitted keys fall back to the defaults supplied by the
// Get* accessors, and so command-line flags can tell "unset" from "zero".
type Config struct {
	// Collector
	ProviderURL  *string `json:"provider_url,omitempty" yaml:"provider_url,omitempty"`
	Marker       *string `json:"marker,omitempty" yaml:"marker,omitempty"`
	FetchTimeout *string `json:"fetch_timeout,omitempty" yaml:"fetch_timeout,omitempty"` // duration string like "30s"
	CollectEvery *string `json:"collect_every,omitempty" yaml:"collect_every,omitempty"`

	// Storage
	TablePath *string `json:"table_path,omitempty" yaml:"table_path,omitempty"`
	Store     *string `json:"store,omitempty" yaml:"store,omitempty"`

	// Dashboard
	Listen            *string `json:"listen,omitempty" yaml:"listen,omitempty"`
	SiteTitle         *string `json:"site_title,omitempty" yaml:"site_title,omitempty"`
	DefaultFilter     *string `json:"default_filter,omitempty" yaml:"default_filter,omitempty"`
	DefaultDays       *int    `json:"default_days,omitempty" yaml:"default_days,omitempty"`
	DefaultMetric     *string `json:"default_metric,omitempty" yaml:"default_metric,omitempty"`
	Timezone          *string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	EChartsAssetsHost *string `json:"echarts_assets_host,omitempty" yaml:"echarts_assets_host,omitempty"`
}

// Helper functions to create pointers
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// LoadConfig reads a .json, .yaml or .yml config file and validates it.
// Fields omitted from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", cleanPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.ProviderURL != nil {
		u, err := url.Parse(*c.ProviderURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("provider_url must be an absolute http(s) URL, got %q", *c.ProviderURL)
		}
	}

	for name, v := range map[string]*string{"fetch_timeout": c.FetchTimeout, "collect_every": c.CollectEvery} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", name, *v)
		}
	}

	if c.Store != nil && *c.Store != StoreCSV && *c.Store != StoreSQLite {
		return fmt.Errorf("store must be %q or %q, got %q", StoreCSV, StoreSQLite, *c.Store)
	}

	if c.DefaultDays != nil && *c.DefaultDays < 1 {
		return fmt.Errorf("default_days must be at least 1, got %d", *c.DefaultDays)
	}

	if c.DefaultMetric != nil && !units.IsValidMetric(*c.DefaultMetric) {
		return fmt.Errorf("default_metric must be one of %s, got %q", units.GetValidMetricsString(), *c.DefaultMetric)
	}

	if c.Timezone != nil && !units.IsTimezoneValid(*c.Timezone) {
		return fmt.Errorf("unknown timezone %q", *c.Timezone)
	}

	return nil
}

// GetProviderURL returns the provider_url value or the default.
func (c *Config) GetProviderURL() string {
	if c.ProviderURL == nil {
		return provider.DefaultURL
	}
	return *c.ProviderURL
}

// GetMarker returns the marker value or the default.
func (c *Config) GetMarker() string {
	if c.Marker == nil {
		return provider.DefaultMarker
	}
	return *c.Marker
}

// GetFetchTimeout parses and returns FetchTimeout. Zero means no client
// timeout.
func (c *Config) GetFetchTimeout() time.Duration {
	return durationOr(c.FetchTimeout, 30*time.Second)
}

// GetCollectEvery parses and returns CollectEvery. Zero means collect once.
func (c *Config) GetCollectEvery() time.Duration {
	return durationOr(c.CollectEvery, 0)
}

// GetStore returns the store kind or the default.
func (c *Config) GetStore() string {
	if c.Store == nil {
		return StoreCSV
	}
	return *c.Store
}

// GetTablePath returns table_path, defaulting by store kind.
func (c *Config) GetTablePath() string {
	if c.TablePath != nil && *c.TablePath != "" {
		return *c.TablePath
	}
	if c.GetStore() == StoreSQLite {
		return "walls.db"
	}
	return "walls.csv"
}

// GetListen returns the listen address or the default.
func (c *Config) GetListen() string {
	if c.Listen == nil {
		return ":8050"
	}
	return *c.Listen
}

// GetSiteTitle returns the site_title value or the default.
func (c *Config) GetSiteTitle() string {
	if c.SiteTitle == nil {
		return dashboard.DefaultSiteTitle
	}
	return *c.SiteTitle
}

// GetDefaultFilter returns the default_filter value or the default.
func (c *Config) GetDefaultFilter() string {
	if c.DefaultFilter == nil {
		return dashboard.DefaultNameFilter
	}
	return *c.DefaultFilter
}

// GetDefaultDays returns the default_days value or the default.
func (c *Config) GetDefaultDays() int {
	if c.DefaultDays == nil {
		return dashboard.DefaultDays
	}
	return *c.DefaultDays
}

// GetDefaultMetric returns the default_metric value or the default.
func (c *Config) GetDefaultMetric() string {
	if c.DefaultMetric == nil {
		return units.MetricCount
	}
	return *c.DefaultMetric
}

// GetTimezone returns the timezone value or the default.
func (c *Config) GetTimezone() string {
	if c.Timezone == nil {
		return units.DefaultTimezone
	}
	return *c.Timezone
}

// GetEChartsAssetsHost returns the configured assets host, or "" for the
// renderer's default.
func (c *Config) GetEChartsAssetsHost() string {
	if c.EChartsAssetsHost == nil {
		return ""
	}
	return *c.EChartsAssetsHost
}

// DashboardInputs returns the initial dashboard controls.
func (c *Config) DashboardInputs() dashboard.Inputs {
	return dashboard.Inputs{
		NameFilter: c.GetDefaultFilter(),
		Days:       c.GetDefaultDays(),
		UsePercent: c.GetDefaultMetric() == units.MetricPercent,
	}
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return units.LoadLocation(c.GetTimezone())
}

// SetString stores v into *dst when set is true; it backs flag overrides.
func SetString(dst **string, v string, set bool) {
	if set {
		*dst = ptrString(v)
	}
}

// SetInt stores v into *dst when set is true.
func SetInt(dst **int, v int, set bool) {
	if set {
		*dst = ptrInt(v)
	}
}

func durationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def
	}
	return d
}
