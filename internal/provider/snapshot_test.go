package provider

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractPayload(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		marker  string
		want    string
		wantErr bool
	}{
		{"after marker", `junk MARK{"a":1}`, "MARK", `{"a":1}`, false},
		{"stops at second marker", `MARK{"a":1}MARKtail`, "MARK", `{"a":1}`, false},
		{"empty marker keeps body", `{"a":1}`, "", `{"a":1}`, false},
		{"missing", `{"a":1}`, "MARK", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractPayload([]byte(tt.body), tt.marker)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseSnapshot(t *testing.T) {
	payload := ` {"b":{"capacity":10,"count":3,"lastUpdated":"x"},
		"a":{"count":7,"lastUpdated":null},
		"b":{"capacity":10,"count":4,"lastUpdated":"y"}} `

	snap, err := ParseSnapshot([]byte(payload))
	if err != nil {
		t.Fatalf("ParseSnapshot failed: %v", err)
	}

	want := Snapshot{Entries: []Entry{
		{Name: "b", Info: WallInfo{Capacity: 10, Count: 4, LastUpdated: "y"}},
		{Name: "a", Info: WallInfo{Capacity: 0, Count: 7}},
	}}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSnapshot_Invalid(t *testing.T) {
	for _, payload := range []string{
		``,
		`null`,
		`{"a":{"capacity":1}}`,
		`{"a":{"capacity":"ten","count":1}}`,
		`{"a":{"capacity":1,"count":1}} trailing`,
		`{"a":{"capacity":1,"count":1}`,
	} {
		if _, err := ParseSnapshot([]byte(payload)); err == nil {
			t.Errorf("ParseSnapshot(%q) expected error", payload)
		}
	}
}
