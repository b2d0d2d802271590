package testutil

import (
	"net/http"
	"testing"

	"github.com/banshee-data/wallwatch/internal/httputil"
)

func TestTwoDayTable(t *testing.T) {
	table := TwoDayTable()
	if table.Len() != 8 {
		t.Fatalf("rows = %d, want 8", table.Len())
	}
	if names := table.Names(); len(names) != 2 || names[0] != "wallA" {
		t.Errorf("names = %v", names)
	}
}

func TestServeAndDecode(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, map[string]string{"path": r.URL.Path})
	})

	rec := Serve(h, http.MethodGet, "/api/walls")
	AssertStatusCode(t, rec.Code, http.StatusOK)

	var body map[string]string
	DecodeJSON(t, rec, &body)
	if body["path"] != "/api/walls" {
		t.Errorf("path = %q", body["path"])
	}
}
