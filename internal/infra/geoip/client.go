// Package geoip resolves a visitor IP to a coarse location using the
// ipapi.co JSON endpoint. Lookups are best-effort: any failure falls back to
// a fixed home location so visit tracking never depends on the external
// service being up.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// Location is the coarse geolocation attached to a visit.
type Location struct {
	IP          string
	City        string
	Region      string
	Country     string
	CountryCode string
	Latitude    float64
	Longitude   float64
	Timezone    string
	Org         string
}

// HomeLocation is used for loopback/private addresses and as the fallback
// when the lookup service fails.
func HomeLocation(ip string) Location {
	return Location{
		IP:          ip,
		City:        "Linz",
		Region:      "Upper Austria",
		Country:     "Austria",
		CountryCode: "AT",
		Latitude:    48.3064,
		Longitude:   14.2858,
		Timezone:    "Europe/Vienna",
		Org:         "Local Network",
	}
}

const defaultBaseURL = "https://ipapi.co"

// Client looks up IP geolocation over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithBaseURL overrides the lookup endpoint (tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// NewClient creates a geolocation client with a 5s lookup budget.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ipapiResponse is the subset of the ipapi.co payload we consume.
type ipapiResponse struct {
	Error       bool    `json:"error"`
	Reason      string  `json:"reason"`
	City        string  `json:"city"`
	Region      string  `json:"region"`
	CountryName string  `json:"country_name"`
	CountryCode string  `json:"country_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
	Org         string  `json:"org"`
}

// Lookup resolves ip to a Location. Private and loopback addresses
// short-circuit to the home location without touching the network; remote
// failures fall back to the home location with the original IP preserved.
func (c *Client) Lookup(ctx context.Context, ip string) Location {
	if IsLocalOrPrivate(ip) {
		return HomeLocation(ip)
	}

	loc, err := c.fetch(ctx, ip)
	if err != nil {
		fallback := HomeLocation(ip)
		fallback.Org = "Unknown ISP"
		return fallback
	}
	return loc
}

// fetch performs the remote lookup.
func (c *Client) fetch(ctx context.Context, ip string) (Location, error) {
	url := fmt.Sprintf("%s/%s/json/", c.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Location{}, fmt.Errorf("geoip: build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (personal-website-analytics)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("geoip: lookup %s: %w", ip, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("geoip: lookup %s: status %d", ip, resp.StatusCode)
	}

	var payload ipapiResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&payload); decodeErr != nil {
		return Location{}, fmt.Errorf("geoip: decode response: %w", decodeErr)
	}
	if payload.Error {
		return Location{}, fmt.Errorf("geoip: lookup %s: %s", ip, payload.Reason)
	}

	return Location{
		IP:          ip,
		City:        orUnknown(payload.City),
		Region:      orUnknown(payload.Region),
		Country:     orUnknown(payload.CountryName),
		CountryCode: orDefault(payload.CountryCode, "XX"),
		Latitude:    payload.Latitude,
		Longitude:   payload.Longitude,
		Timezone:    orUnknown(payload.Timezone),
		Org:         orUnknown(payload.Org),
	}, nil
}

// IsLocalOrPrivate reports whether ip is loopback, private, link-local, or
// unparseable. A public geolocation service cannot resolve those.
func IsLocalOrPrivate(ip string) bool {
	if ip == "" || ip == "Unknown" || ip == "localhost" {
		return true
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return true
	}
	return parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast() || parsed.IsUnspecified()
}

func orUnknown(s string) string {
	return orDefault(s, "Unknown")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
