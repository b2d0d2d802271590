// Package walls defines the occupancy row and table types shared by the
// collector and the dashboard.
package walls

import (
	"fmt"
	"time"

	"github.com/banshee-data/wallwatch/internal/timeutil"
)

// ClockLayout is the format of ClockTime values.
const ClockLayout = "15:04:05"

// ClockTime is a time of day at second resolution, stored in HH:MM:SS form.
type ClockTime string

// ClockTimeOf formats the time-of-day of t.
func ClockTimeOf(t time.Time) ClockTime {
	return ClockTime(t.Format(ClockLayout))
}

// ParseClockTime validates an HH:MM:SS string.
func ParseClockTime(s string) (ClockTime, error) {
	if _, err := time.Parse(ClockLayout, s); err != nil {
		return "", fmt.Errorf("invalid time %q: %w", s, err)
	}
	return ClockTime(s), nil
}

// SnapshotRow is one wall's reading from one fetch.
type SnapshotRow struct {
	ScrapeDate  timeutil.Date `json:"scrape_date"`
	ScrapeTime  ClockTime     `json:"scrape_time"`
	Name        string        `json:"name"`
	Capacity    int           `json:"capacity"`
	Count       int           `json:"count"`
	LastUpdated string        `json:"time"`
}

// Key identifies a row in the historical table.
type Key struct {
	Name       string
	ScrapeDate timeutil.Date
	ScrapeTime ClockTime
}

// Key returns the deduplication key of r.
func (r SnapshotRow) Key() Key {
	return Key{Name: r.Name, ScrapeDate: r.ScrapeDate, ScrapeTime: r.ScrapeTime}
}

// DayKey identifies a wall on a calendar day.
type DayKey struct {
	Name       string
	ScrapeDate timeutil.Date
}

// DayKey returns the (name, date) grouping key of r.
func (r SnapshotRow) DayKey() DayKey {
	return DayKey{Name: r.Name, ScrapeDate: r.ScrapeDate}
}

// Table is an ordered sequence of rows. Order is significant: later rows
// are more recently written.
type Table struct {
	Rows []SnapshotRow
}

// NewTable returns a table holding a copy of rows.
func NewTable(rows []SnapshotRow) Table {
	out := make([]SnapshotRow, len(rows))
	copy(out, rows)
	return Table{Rows: out}
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Names returns the distinct wall names in first-seen order.
func (t Table) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range t.Rows {
		if !seen[r.Name] {
			seen[r.Name] = true
			names = append(names, r.Name)
		}
	}
	return names
}
