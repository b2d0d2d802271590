package api

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/wallwatch/internal/dashboard"
	"github.com/banshee-data/wallwatch/internal/history"
	"github.com/banshee-data/wallwatch/internal/monitoring"
	"github.com/banshee-data/wallwatch/internal/testutil"
	"github.com/banshee-data/wallwatch/internal/timeutil"
	"github.com/banshee-data/wallwatch/internal/walls"
)

func testOptions() Options {
	return Options{
		Defaults: dashboard.Inputs{NameFilter: "wall", Days: 30},
		Clock:    timeutil.NewMockClock(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)),
		Location: time.UTC,
	}
}

func newTestServer() http.Handler {
	return NewServer(testutil.TwoDayTable(), testOptions()).ServeMux()
}

func TestChartJSON(t *testing.T) {
	rec := testutil.Serve(newTestServer(), http.MethodGet, "/api/chart?names=wallA&days=2")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var spec dashboard.ChartSpec
	testutil.DecodeJSON(t, rec, &spec)
	require.Len(t, spec.Series, 1)
	s := spec.Series[0]
	assert.Equal(t, "wallA", s.Name)
	require.Len(t, s.Points, 2)
	assert.Equal(t, "2024-01-09", s.Points[0].Date.String())
	assert.Equal(t, 25.0, *s.Points[0].Metric)
	assert.Equal(t, 12.0, *s.Points[1].Metric)
	assert.Equal(t, "UkWalls Data for walls matching [wallA] in last 2 days", spec.Title)
}

func TestChartJSON_Defaults(t *testing.T) {
	rec := testutil.Serve(newTestServer(), http.MethodGet, "/api/chart")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var spec dashboard.ChartSpec
	testutil.DecodeJSON(t, rec, &spec)
	assert.Len(t, spec.Series, 2)
	assert.Contains(t, spec.Title, "[wall] in last 30 days")
	assert.Equal(t, "Count at Peak", spec.YAxisTitle)
}

func TestChartJSON_MaxDays(t *testing.T) {
	rec := testutil.Serve(newTestServer(), http.MethodGet, "/api/chart?days=9223372036854775807")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var spec dashboard.ChartSpec
	testutil.DecodeJSON(t, rec, &spec)
	assert.Len(t, spec.Series, 2)
	assert.Contains(t, spec.Title, "in last 9223372036854775807 days")
}

func TestChartJSON_Percent(t *testing.T) {
	for _, v := range []string{"true", "on", "1"} {
		rec := testutil.Serve(newTestServer(), http.MethodGet, "/api/chart?names=wallB&days=1&percent="+v)
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

		var spec dashboard.ChartSpec
		testutil.DecodeJSON(t, rec, &spec)
		require.Len(t, spec.Series, 1)
		assert.True(t, spec.UsePercent)
		assert.Equal(t, 50.0, *spec.Series[0].Points[0].Metric, "percent=%s", v)
	}
}

func TestChartJSON_EmptyNamesMatchesAll(t *testing.T) {
	rec := testutil.Serve(newTestServer(), http.MethodGet, "/api/chart?names=+,+&days=5")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var spec dashboard.ChartSpec
	testutil.DecodeJSON(t, rec, &spec)
	assert.Len(t, spec.Series, 2)
}

func TestBadQueries(t *testing.T) {
	for _, target := range []string{
		"/api/chart?days=0",
		"/api/chart?days=-2",
		"/api/chart?days=abc",
		"/chart?days=1.5",
		"/api/summary?percent=maybe",
		"/?days=0",
	} {
		rec := testutil.Serve(newTestServer(), http.MethodGet, target)
		testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
		var body map[string]string
		testutil.DecodeJSON(t, rec, &body)
		assert.NotEmpty(t, body["error"], target)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	for _, target := range []string{"/", "/chart", "/chart.png", "/api/chart", "/api/summary", "/api/walls", "/healthz"} {
		rec := testutil.Serve(newTestServer(), http.MethodPost, target)
		testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestUnknownRoute(t *testing.T) {
	rec := testutil.Serve(newTestServer(), http.MethodGet, "/nope")
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestWallsAndHealth(t *testing.T) {
	h := newTestServer()

	rec := testutil.Serve(h, http.MethodGet, "/api/walls")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var wallsResp map[string][]string
	testutil.DecodeJSON(t, rec, &wallsResp)
	assert.Equal(t, []string{"wallA", "wallB"}, wallsResp["walls"])

	rec = testutil.Serve(h, http.MethodGet, "/healthz")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var health map[string]interface{}
	testutil.DecodeJSON(t, rec, &health)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, float64(4), health["rows"])
}

func TestSummary(t *testing.T) {
	rec := testutil.Serve(newTestServer(), http.MethodGet, "/api/summary?names=wallB&days=2")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var body struct {
		Title  string                    `json:"title"`
		Series []dashboard.SeriesSummary `json:"series"`
	}
	testutil.DecodeJSON(t, rec, &body)
	require.Len(t, body.Series, 1)
	assert.Equal(t, 2, body.Series[0].Points)
	assert.Equal(t, 35.0, body.Series[0].Mean)
	assert.Equal(t, 40.0, body.Series[0].Max)
	assert.Equal(t, "2024-01-10", body.Series[0].MaxOn)
}

func TestChartHTMLAndPNG(t *testing.T) {
	h := newTestServer()

	rec := testutil.Serve(h, http.MethodGet, "/chart?names=wallA&days=2")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "wallA")

	rec = testutil.Serve(h, http.MethodGet, "/chart.png?names=wallA&days=2")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestIndex(t *testing.T) {
	opts := testOptions()
	opts.SiteTitle = "Leeds Walls"
	h := NewServer(testutil.TwoDayTable(), opts).ServeMux()

	rec := testutil.Serve(h, http.MethodGet, "/?names=wallA&percent=true")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Leeds Walls</title>")
	assert.Contains(t, body, `value="wallA"`)
	assert.Contains(t, body, "checked")
	assert.Contains(t, body, `src="/chart?days=30&amp;names=wallA&amp;percent=true"`)
	assert.Contains(t, body, "setTimeout(refresh")
}

type countingLoader struct {
	mu    sync.Mutex
	table walls.Table
	err   error
	loads int
}

func (l *countingLoader) Load(ctx context.Context) (walls.Table, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads++
	return l.table, l.err
}

func TestReloadingServer(t *testing.T) {
	_, restore := monitoring.Capture()
	defer restore()

	loader := &countingLoader{err: history.ErrTableNotFound}
	h := NewReloadingServer(loader, testOptions()).ServeMux()

	var health map[string]interface{}
	rec := testutil.Serve(h, http.MethodGet, "/healthz")
	testutil.DecodeJSON(t, rec, &health)
	assert.Equal(t, float64(0), health["rows"])

	loader.mu.Lock()
	loader.table, loader.err = testutil.TwoDayTable(), nil
	loader.mu.Unlock()

	rec = testutil.Serve(h, http.MethodGet, "/healthz")
	testutil.DecodeJSON(t, rec, &health)
	assert.Equal(t, float64(4), health["rows"])
	assert.Equal(t, 2, loader.loads)
}

func TestStaticServerDoesNotReload(t *testing.T) {
	table := testutil.TwoDayTable()
	srv := NewServer(table, testOptions())
	table.Rows[0].Name = "mutated"

	rec := testutil.Serve(srv.ServeMux(), http.MethodGet, "/api/walls")
	var body map[string][]string
	testutil.DecodeJSON(t, rec, &body)
	assert.Equal(t, []string{"wallA", "wallB"}, body["walls"])
}

func TestDisplayCSV(t *testing.T) {
	srv := NewServer(testutil.TwoDayTable(), testOptions())
	rec := testutil.Serve(http.HandlerFunc(srv.handleDisplayCSV), http.MethodGet, "/debug/display.csv")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "scrape_date,scrape_time,name,capacity,count,time", lines[0])
	assert.Equal(t, "2024-01-09,09:00:00,wallA,100,25,", lines[1])
}

type fakeRaw struct {
	data []byte
	err  error
}

func (f fakeRaw) Raw() ([]byte, error) { return f.data, f.err }

func TestRawTableHandler(t *testing.T) {
	rec := testutil.Serve(rawTableHandler(fakeRaw{data: []byte("a,b\n")}), http.MethodGet, "/debug/table.csv")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Equal(t, "a,b\n", rec.Body.String())

	rec = testutil.Serve(rawTableHandler(fakeRaw{err: history.ErrTableNotFound}), http.MethodGet, "/debug/table.csv")
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestLoggingMiddleware(t *testing.T) {
	lines, restore := monitoring.Capture()
	defer restore()

	h := LoggingMiddleware(newTestServer())
	testutil.Serve(h, http.MethodGet, "/healthz")
	testutil.Serve(h, http.MethodGet, "/api/chart?days=0")

	require.Len(t, *lines, 2)
	assert.Contains(t, (*lines)[0], "GET")
	assert.Contains(t, (*lines)[0], "/healthz")
	assert.Contains(t, (*lines)[0], "200")
	assert.Contains(t, (*lines)[1], "400")
}
