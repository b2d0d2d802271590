// Package units provides the occupancy metric modes and timezone helpers
// shared by the dashboard and its configuration.
package units

import "strings"

// Metric modes.
const (
	MetricCount   = "count"
	MetricPercent = "percent"
)

// ValidMetrics contains all valid metric values
var ValidMetrics = []string{MetricCount, MetricPercent}

// IsValidMetric checks if the given metric is in the list of valid metrics
func IsValidMetric(metric string) bool {
	for _, m := range ValidMetrics {
		if metric == m {
			return true
		}
	}
	return false
}

// GetValidMetricsString returns a comma-separated string of valid metrics for error messages
func GetValidMetricsString() string {
	return strings.Join(ValidMetrics, ", ")
}

// AxisLabel returns the y-axis label for a metric. Unknown metrics fall back
// to the count label.
func AxisLabel(metric string) string {
	if metric == MetricPercent {
		return "Percent Full at Peak"
	}
	return "Count at Peak"
}

// Suffix returns the unit suffix shown after a metric value in tooltips.
func Suffix(metric string) string {
	if metric == MetricPercent {
		return "%"
	}
	return ""
}
