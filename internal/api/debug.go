package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"tailscale.com/tsweb"

	"github.com/banshee-data/wallwatch/internal/history"
	"github.com/banshee-data/wallwatch/internal/httputil"
)

// RawTable is implemented by stores that can hand out their file verbatim.
type RawTable interface {
	Raw() ([]byte, error)
}

// AttachDebugRoutes mounts the reduced display table and, when raw is
// non-nil, a download of the stored table file.
func (s *Server) AttachDebugRoutes(debug *tsweb.DebugHandler, raw RawTable) {
	debug.Handle("display.csv", "Reduced display table (daily peaks)", http.HandlerFunc(s.handleDisplayCSV))
	if raw != nil {
		debug.Handle("table.csv", "Download the historical table", rawTableHandler(raw))
	}
}

func (s *Server) handleDisplayCSV(w http.ResponseWriter, r *http.Request) {
	display, err := s.snapshot(r.Context())
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load table: %v", err))
		return
	}
	var buf bytes.Buffer
	if err := history.EncodeCSV(&buf, display); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to encode table: %v", err))
		return
	}
	httputil.WriteBody(w, "text/csv; charset=utf-8", buf.Bytes())
}

func rawTableHandler(raw RawTable) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := raw.Raw()
		if errors.Is(err, history.ErrTableNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		w.Header().Set("Content-Disposition", "attachment; filename=table.csv")
		httputil.WriteBody(w, "text/csv; charset=utf-8", data)
	})
}
