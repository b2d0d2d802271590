// Package testutil provides shared fixtures and HTTP assertions for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/wallwatch/internal/timeutil"
	"github.com/banshee-data/wallwatch/internal/walls"
)

// Row builds a snapshot row from literal fields; it panics on a bad date.
func Row(date, clock, name string, capacity, count int) walls.SnapshotRow {
	return walls.SnapshotRow{
		ScrapeDate: timeutil.MustParseDate(date),
		ScrapeTime: walls.ClockTime(clock),
		Name:       name,
		Capacity:   capacity,
		Count:      count,
	}
}

// TwoDayTable is a small historical table: two walls, two readings a day on
// 2024-01-09 and 2024-01-10. Daily peaks are wallA 25/12 and wallB 30/40.
func TwoDayTable() walls.Table {
	return walls.Table{Rows: []walls.SnapshotRow{
		Row("2024-01-09", "09:00:00", "wallA", 100, 10),
		Row("2024-01-09", "09:00:00", "wallB", 80, 30),
		Row("2024-01-09", "18:00:00", "wallA", 100, 25),
		Row("2024-01-09", "18:00:00", "wallB", 80, 20),
		Row("2024-01-10", "09:00:00", "wallA", 100, 12),
		Row("2024-01-10", "09:00:00", "wallB", 80, 9),
		Row("2024-01-10", "18:00:00", "wallA", 100, 8),
		Row("2024-01-10", "18:00:00", "wallB", 80, 40),
	}}
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// Serve runs one request through h and returns the recorder.
func Serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

// DecodeJSON decodes the recorded body into v, failing the test on error.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}
