package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"tailscale.com/tsweb"

	"github.com/banshee-data/wallwatch/internal/api"
	"github.com/banshee-data/wallwatch/internal/config"
	"github.com/banshee-data/wallwatch/internal/db"
	"github.com/banshee-data/wallwatch/internal/history"
	"github.com/banshee-data/wallwatch/internal/monitoring"
	"github.com/banshee-data/wallwatch/internal/timeutil"
)

var (
	dashboardListen *string
	dashboardDebug  *bool
)

func init() {
	dashboardListen = dashboardCmd.Flags().String("listen", "", "Listen address (default :8050).")
	dashboardDebug = dashboardCmd.Flags().Bool("debug", false, "Reload the table on every request and mount /debug/ routes.")
	rootCmd.AddCommand(dashboardCmd)
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard [--listen <addr>] [--debug]",
	Short: "Serves the occupancy dashboard.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		config.SetString(&cfg.Listen, *dashboardListen, cmd.Flags().Changed("listen"))

		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		opts := api.Options{
			SiteTitle:  cfg.GetSiteTitle(),
			Defaults:   cfg.DashboardInputs(),
			AssetsHost: cfg.GetEChartsAssetsHost(),
			Clock:      timeutil.RealClock{},
			Location:   loc,
		}

		var srv *api.Server
		if *dashboardDebug {
			srv = api.NewReloadingServer(store, opts)
		} else {
			table, existed, err := history.LoadOrEmpty(cmd.Context(), store)
			if err != nil {
				return fmt.Errorf("failed to load table: %w", err)
			}
			if !existed {
				monitoring.Logf("no historical table at %s yet; run collect first", cfg.GetTablePath())
			}
			monitoring.Logf("loaded %d rows from %s", table.Len(), cfg.GetTablePath())
			srv = api.NewServer(table, opts)
		}

		mux := srv.ServeMux()
		if *dashboardDebug {
			if err := attachDebug(mux, srv, store); err != nil {
				return err
			}
		}

		return serve(cmd.Context(), cfg.GetListen(), api.LoggingMiddleware(mux))
	},
}

// attachDebug mounts tsweb's /debug/ index plus the store's own routes.
func attachDebug(mux *http.ServeMux, srv *api.Server, store history.Store) error {
	debug := tsweb.Debugger(mux)
	switch s := store.(type) {
	case *db.DB:
		srv.AttachDebugRoutes(debug, nil)
		return s.AttachAdminRoutes(debug)
	case api.RawTable:
		srv.AttachDebugRoutes(debug, s)
	default:
		srv.AttachDebugRoutes(debug, nil)
	}
	return nil
}

// serve runs an HTTP server until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, addr string, h http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("dashboard listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	monitoring.Logf("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}
	monitoring.Logf("HTTP server stopped")
	return nil
}
