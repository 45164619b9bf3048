// Package geo resolves the user's approximate position for park discovery.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/nhle/community-roots/internal/model"
)

var (
	// ErrPermissionDenied means location use is disabled or was refused.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrUnavailable means the position could not be determined.
	ErrUnavailable = errors.New("location unavailable")
)

// Locator yields a single position fix.
type Locator interface {
	Locate(ctx context.Context) (model.Coordinates, error)
}

// Fixed always returns the same position.
type Fixed model.Coordinates

// Locate implements Locator.
func (f Fixed) Locate(context.Context) (model.Coordinates, error) {
	return model.Coordinates(f), nil
}

// Denied always refuses.
type Denied struct{}

// Locate implements Locator.
func (Denied) Locate(context.Context) (model.Coordinates, error) {
	return model.Coordinates{}, ErrPermissionDenied
}

// IPLocator estimates the position from the caller's public IP address
// using a JSON endpoint that reports "latitude" and "longitude".
type IPLocator struct {
	client  *http.Client
	baseURL string
}

// NewIPLocator creates a locator querying baseURL.
func NewIPLocator(baseURL string) *IPLocator {
	return &IPLocator{
		client:  &http.Client{},
		baseURL: baseURL,
	}
}

type ipResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Error     bool     `json:"error"`
	Reason    string   `json:"reason"`
}

// Locate implements Locator. 401/403 responses map to ErrPermissionDenied;
// every other failure wraps ErrUnavailable.
func (l *IPLocator) Locate(ctx context.Context) (model.Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL, nil)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("%w: creating request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return model.Coordinates{}, fmt.Errorf("%w: lookup returned %d", ErrPermissionDenied, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return model.Coordinates{}, fmt.Errorf("%w: lookup returned %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	var r ipResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return model.Coordinates{}, fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}
	if r.Error {
		return model.Coordinates{}, fmt.Errorf("%w: %s", ErrUnavailable, r.Reason)
	}
	if r.Latitude == nil || r.Longitude == nil {
		return model.Coordinates{}, fmt.Errorf("%w: response has no coordinates", ErrUnavailable)
	}
	return model.Coordinates{Lat: *r.Latitude, Lng: *r.Longitude}, nil
}

// FromConfig picks a locator: Denied when location use is off, Fixed when
// a position is configured, otherwise an IP lookup.
func FromConfig(cfg model.LocationConfig) Locator {
	if !cfg.Enabled {
		return Denied{}
	}
	if pos, ok := cfg.Fixed(); ok {
		return Fixed(pos)
	}
	if cfg.LookupURL == "" {
		return Denied{}
	}
	return NewIPLocator(cfg.LookupURL)
}
