package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/banshee-data/wallwatch/internal/dashboard"
	"github.com/banshee-data/wallwatch/internal/httputil"
	"github.com/banshee-data/wallwatch/internal/render"
)

// chartFor loads the request's snapshot and renders the chart for its
// query. On failure it has already written the error response.
func (s *Server) chartFor(w http.ResponseWriter, r *http.Request) (dashboard.ChartSpec, bool) {
	if !httputil.RequireGET(w, r) {
		return dashboard.ChartSpec{}, false
	}
	in, err := s.parseInputs(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return dashboard.ChartSpec{}, false
	}
	display, err := s.snapshot(r.Context())
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load table: %v", err))
		return dashboard.ChartSpec{}, false
	}
	spec, err := s.pipeline.Render(display, in, s.today())
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return dashboard.ChartSpec{}, false
	}
	return spec, true
}

func (s *Server) handleChartJSON(w http.ResponseWriter, r *http.Request) {
	spec, ok := s.chartFor(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONOK(w, spec)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	spec, ok := s.chartFor(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"title":  spec.Title,
		"metric": spec.YAxisTitle,
		"series": dashboard.Summarize(spec),
	})
}

func (s *Server) handleChartHTML(w http.ResponseWriter, r *http.Request) {
	spec, ok := s.chartFor(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render.EChartsHTML(&buf, spec, render.EChartsOptions{AssetsHost: s.assets}); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	httputil.WriteHTML(w, buf.Bytes())
}

func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	spec, ok := s.chartFor(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render.PNG(&buf, spec, 0, 0); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render png: %v", err))
		return
	}
	httputil.WriteBody(w, "image/png", buf.Bytes())
}

func (s *Server) handleWalls(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireGET(w, r) {
		return
	}
	display, err := s.snapshot(r.Context())
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load table: %v", err))
		return
	}
	names := display.Names()
	if names == nil {
		names = []string{}
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"walls": names})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireGET(w, r) {
		return
	}
	display, err := s.snapshot(r.Context())
	if err != nil {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "error", "error": err.Error()})
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"status": "ok", "rows": display.Len()})
}
