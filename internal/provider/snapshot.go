package provider

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// WallInfo is one wall's entry in the provider payload.
type WallInfo struct {
	Capacity    int    `json:"capacity"`
	Count       int    `json:"count"`
	LastUpdated string `json:"lastUpdated"`
}

// Entry pairs a wall name with its reading.
type Entry struct {
	Name string
	Info WallInfo
}

// Snapshot is the provider payload in source key order.
type Snapshot struct {
	Entries []Entry
}

// Len returns the number of walls in the snapshot.
func (s Snapshot) Len() int { return len(s.Entries) }

// ExtractPayload returns the text following the first occurrence of marker
// in body, up to the next occurrence if there is one.
func ExtractPayload(body []byte, marker string) ([]byte, error) {
	if marker == "" {
		return body, nil
	}
	idx := bytes.Index(body, []byte(marker))
	if idx < 0 {
		return nil, ErrMarkerNotFound
	}
	rest := body[idx+len(marker):]
	if next := bytes.Index(rest, []byte(marker)); next >= 0 {
		rest = rest[:next]
	}
	return rest, nil
}

// ParseSnapshot decodes a JSON object keyed by wall name. Key order is kept;
// a repeated key keeps its first position and its last value.
func ParseSnapshot(payload []byte) (Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))

	tok, err := dec.Token()
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Snapshot{}, fmt.Errorf("%w: expected object, got %v", ErrBadPayload, tok)
	}

	var snap Snapshot
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		name, ok := tok.(string)
		if !ok {
			return Snapshot{}, fmt.Errorf("%w: expected wall name, got %v", ErrBadPayload, tok)
		}

		var raw rawWallInfo
		if err := dec.Decode(&raw); err != nil {
			return Snapshot{}, fmt.Errorf("%w: wall %q: %v", ErrBadPayload, name, err)
		}
		info, err := raw.toWallInfo()
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: wall %q: %v", ErrBadPayload, name, err)
		}

		if i, dup := index[name]; dup {
			snap.Entries[i].Info = info
			continue
		}
		index[name] = len(snap.Entries)
		snap.Entries = append(snap.Entries, Entry{Name: name, Info: info})
	}

	if _, err := dec.Token(); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Snapshot{}, fmt.Errorf("%w: trailing data after object", ErrBadPayload)
	}
	return snap, nil
}

type rawWallInfo struct {
	Capacity    *int            `json:"capacity"`
	Count       *int            `json:"count"`
	LastUpdated json.RawMessage `json:"lastUpdated"`
}

// toWallInfo keeps lastUpdated verbatim whether the provider sent a string or
// a number. A missing capacity becomes 0, which the dashboard treats as
// unknown.
func (r rawWallInfo) toWallInfo() (WallInfo, error) {
	if r.Count == nil {
		return WallInfo{}, errors.New("missing count")
	}
	info := WallInfo{Count: *r.Count}
	if r.Capacity != nil {
		info.Capacity = *r.Capacity
	}

	raw := strings.TrimSpace(string(r.LastUpdated))
	switch {
	case raw == "" || raw == "null":
	case strings.HasPrefix(raw, `"`):
		if err := json.Unmarshal(r.LastUpdated, &info.LastUpdated); err != nil {
			return WallInfo{}, fmt.Errorf("lastUpdated: %v", err)
		}
	default:
		info.LastUpdated = raw
	}
	return info, nil
}
