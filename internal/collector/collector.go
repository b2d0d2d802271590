// Package collector fetches occupancy snapshots and merges them into the
// historical table.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/wallwatch/internal/history"
	"github.com/banshee-data/wallwatch/internal/monitoring"
	"github.com/banshee-data/wallwatch/internal/provider"
	"github.com/banshee-data/wallwatch/internal/timeutil"
)

// Fetcher returns the provider's current snapshot.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (provider.Snapshot, error)
}

// RunRecorder is implemented by stores that keep an audit trail of runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, r RunResult) error
}

// RunResult describes one completed collector run.
type RunResult struct {
	RunID      string
	CapturedAt time.Time
	Fetched    int
	RowsBefore int
	RowsAfter  int
	Created    bool
}

// Added is the number of rows the run grew the table by.
func (r RunResult) Added() int { return r.RowsAfter - r.RowsBefore }

// Collector wires a provider to a store.
type Collector struct {
	fetcher  Fetcher
	store    history.Store
	clock    timeutil.Clock
	location *time.Location
}

// New returns a Collector. A nil clock uses the real clock; a nil location
// stamps rows in local time.
func New(f Fetcher, s history.Store, clock timeutil.Clock, loc *time.Location) *Collector {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Collector{fetcher: f, store: s, clock: clock, location: loc}
}

// Run performs one fetch-merge-save cycle. Any failure aborts the run before
// the store is written.
func (c *Collector) Run(ctx context.Context) (RunResult, error) {
	res := RunResult{
		RunID:      uuid.NewString(),
		CapturedAt: c.clock.Now().In(c.location),
	}

	snap, err := c.fetcher.FetchSnapshot(ctx)
	if err != nil {
		return res, err
	}
	res.Fetched = snap.Len()

	existing, existed, err := history.LoadOrEmpty(ctx, c.store)
	if err != nil {
		return res, fmt.Errorf("load historical table: %w", err)
	}
	res.Created = !existed
	res.RowsBefore = existing.Len()

	merged := Merge(existing, SnapshotToRows(snap, res.CapturedAt))
	res.RowsAfter = merged.Len()

	if err := c.store.Save(ctx, merged); err != nil {
		return res, fmt.Errorf("save historical table: %w", err)
	}

	if rec, ok := c.store.(RunRecorder); ok {
		if err := rec.RecordRun(ctx, res); err != nil {
			monitoring.Logf("run %s: failed to record run: %v", res.RunID, err)
		}
	}

	if res.Created {
		monitoring.Logf("run %s: created table with %d rows from %d walls", res.RunID, res.RowsAfter, res.Fetched)
	} else {
		monitoring.Logf("run %s: table %d -> %d rows (%d walls fetched)", res.RunID, res.RowsBefore, res.RowsAfter, res.Fetched)
	}
	return res, nil
}

// RunEvery runs immediately and then on every tick of interval until ctx is
// done. Each tick is an independent run; a failed run is logged and the loop
// carries on.
func (c *Collector) RunEvery(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("interval must be positive")
	}

	c.runLogged(ctx)

	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("collector loop stopped")
			return nil
		case <-ticker.C():
			c.runLogged(ctx)
		}
	}
}

func (c *Collector) runLogged(ctx context.Context) {
	if res, err := c.Run(ctx); err != nil {
		monitoring.Logf("run %s failed: %v", res.RunID, err)
	}
}
