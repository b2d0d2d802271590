// Package provider fetches occupancy snapshots from the wall data endpoint.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/banshee-data/wallwatch/internal/monitoring"
)

const (
	// DefaultURL is the public occupancy endpoint.
	DefaultURL = "http://ukwalls.epizy.com/?json"
	// DefaultMarker precedes the JSON payload in the response body.
	DefaultMarker = "done a bad"
)

var (
	// ErrMarkerNotFound is returned when the response lacks the payload marker.
	ErrMarkerNotFound = errors.New("payload marker not found in response")
	// ErrBadPayload is returned when the payload is not the expected JSON object.
	ErrBadPayload = errors.New("malformed snapshot payload")
	// ErrBadStatus is returned for non-2xx responses.
	ErrBadStatus = errors.New("unexpected response status")
)

// FetchError reports a failed snapshot fetch. The persisted table must not
// be touched when one is returned.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch snapshot from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options configures a Client.
type Options struct {
	URL     string
	Marker  string
	Timeout time.Duration
}

// Client issues snapshot requests against the provider.
type Client struct {
	http   *resty.Client
	url    string
	marker string
}

// NewClient builds a Client; empty options fall back to the defaults.
func NewClient(o Options) *Client {
	if o.URL == "" {
		o.URL = DefaultURL
	}
	if o.Marker == "" {
		o.Marker = DefaultMarker
	}

	c := resty.New()
	if o.Timeout > 0 {
		c.SetTimeout(o.Timeout)
	}
	return &Client{http: c, url: o.URL, marker: o.Marker}
}

// URL returns the endpoint the client posts to.
func (c *Client) URL() string { return c.url }

// FetchSnapshot posts once to the provider and parses the embedded payload.
// There is no retry.
func (c *Client) FetchSnapshot(ctx context.Context) (Snapshot, error) {
	resp, err := c.http.R().SetContext(ctx).Post(c.url)
	if err != nil {
		return Snapshot{}, &FetchError{URL: c.url, Err: err}
	}
	if resp.IsError() {
		return Snapshot{}, &FetchError{URL: c.url, Err: fmt.Errorf("%w: %s", ErrBadStatus, resp.Status())}
	}

	body := resp.Body()
	monitoring.Logf("provider responded %d with %d bytes in %v", resp.StatusCode(), len(body), resp.Time())

	payload, err := ExtractPayload(body, c.marker)
	if err != nil {
		return Snapshot{}, &FetchError{URL: c.url, Err: err}
	}
	snap, err := ParseSnapshot(payload)
	if err != nil {
		return Snapshot{}, &FetchError{URL: c.url, Err: err}
	}
	return snap, nil
}
