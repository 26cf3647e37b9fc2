// Package weather fetches current conditions and forecasts from the
// OpenWeatherMap One Call API.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	appLog "inkdash/internal/log"
	"inkdash/internal/model"
)

// DefaultBaseURL is the One Call 3.0 endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/3.0/onecall"

// Options configures a Client.
type Options struct {
	APIKey  string
	Lat     float64
	Lon     float64
	Units   string
	Lang    string
	BaseURL string
}

// Client talks to the One Call API.
type Client struct {
	opts Options
	http *http.Client
}

// NewClient returns a Client. httpClient may be nil.
func NewClient(opts Options, httpClient *http.Client) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Units == "" {
		opts.Units = "metric"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{opts: opts, http: httpClient}
}

// Fetch returns the current conditions plus hourly and daily forecasts.
func (c *Client) Fetch(ctx context.Context) (model.WeatherSnapshot, error) {
	var snap model.WeatherSnapshot
	if c.opts.APIKey == "" {
		return snap, errors.New("weather: api key is empty")
	}

	u, err := url.Parse(c.opts.BaseURL)
	if err != nil {
		return snap, fmt.Errorf("weather: bad base url: %w", err)
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(c.opts.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(c.opts.Lon, 'f', -1, 64))
	q.Set("units", c.opts.Units)
	if c.opts.Lang != "" {
		q.Set("lang", c.opts.Lang)
	}
	q.Set("exclude", "minutely,alerts")
	q.Set("appid", c.opts.APIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return snap, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return snap, fmt.Errorf("weather: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return snap, fmt.Errorf("weather: unexpected status %s: %s", resp.Status, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snap, fmt.Errorf("weather: decode response: %w", err)
	}

	appLog.Info("weather fetched",
		"temp", snap.Current.Temp,
		"hourly", len(snap.Hourly),
		"daily", len(snap.Daily),
	)
	return snap, nil
}
