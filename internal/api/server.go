// Package api serves the occupancy dashboard over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/wallwatch/internal/dashboard"
	"github.com/banshee-data/wallwatch/internal/history"
	"github.com/banshee-data/wallwatch/internal/monitoring"
	"github.com/banshee-data/wallwatch/internal/timeutil"
	"github.com/banshee-data/wallwatch/internal/walls"
)

// Options configure a Server. Zero values take package defaults.
type Options struct {
	SiteTitle  string
	Defaults   dashboard.Inputs
	AssetsHost string
	Clock      timeutil.Clock
	Location   *time.Location
}

// Server serves the dashboard over either a fixed display table or one
// reloaded from a store on every request.
type Server struct {
	display  walls.Table
	loader   history.Loader
	pipeline dashboard.Pipeline
	defaults dashboard.Inputs
	assets   string
	clock    timeutil.Clock
	loc      *time.Location
}

// NewServer serves a fixed snapshot of the historical table. The table is
// reduced once here and never modified afterwards.
func NewServer(historical walls.Table, o Options) *Server {
	s := newServer(o)
	s.display = dashboard.Reduce(historical)
	return s
}

// NewReloadingServer re-reads and reduces the table from loader on every
// request. An absent table serves as empty.
func NewReloadingServer(loader history.Loader, o Options) *Server {
	s := newServer(o)
	s.loader = loader
	return s
}

func newServer(o Options) *Server {
	if o.Clock == nil {
		o.Clock = timeutil.RealClock{}
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Defaults.Days == 0 && o.Defaults.NameFilter == "" {
		o.Defaults = dashboard.DefaultInputs()
	}
	return &Server{
		pipeline: dashboard.Pipeline{SiteTitle: o.SiteTitle},
		defaults: o.Defaults,
		assets:   o.AssetsHost,
		clock:    o.Clock,
		loc:      o.Location,
	}
}

// ServeMux returns the dashboard routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/chart", s.handleChartHTML)
	mux.HandleFunc("/chart.png", s.handleChartPNG)
	mux.HandleFunc("/api/chart", s.handleChartJSON)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/walls", s.handleWalls)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// snapshot returns the display table a request works on.
func (s *Server) snapshot(ctx context.Context) (walls.Table, error) {
	if s.loader == nil {
		return s.display, nil
	}
	t, existed, err := history.LoadOrEmpty(ctx, s.loader)
	if err != nil {
		return walls.Table{}, err
	}
	if !existed {
		monitoring.Logf("historical table not found; serving an empty dashboard")
	}
	return dashboard.Reduce(t), nil
}

func (s *Server) today() timeutil.Date {
	return timeutil.DateOf(s.clock.Now().In(s.loc))
}

// parseInputs overlays query parameters on the configured defaults. An
// explicitly empty names parameter means every wall.
func (s *Server) parseInputs(r *http.Request) (dashboard.Inputs, error) {
	q := r.URL.Query()
	in := s.defaults

	if q.Has("names") {
		in.NameFilter = q.Get("names")
	}
	if q.Has("days") {
		n, err := strconv.Atoi(strings.TrimSpace(q.Get("days")))
		if err != nil || n < 1 {
			return in, fmt.Errorf("days must be an integer of at least 1, got %q", q.Get("days"))
		}
		in.Days = n
	}
	if q.Has("percent") {
		b, err := parseToggle(q.Get("percent"))
		if err != nil {
			return in, err
		}
		in.UsePercent = b
	}
	return in, nil
}

func parseToggle(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "yes":
		return true, nil
	case "", "off", "no":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("percent must be a boolean, got %q", v)
	}
	return b, nil
}
