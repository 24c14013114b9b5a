// Package weather fetches current conditions from OpenWeatherMap and
// normalizes them into display-ready snapshots.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	owmDefaultURL = "https://api.openweathermap.org/data/2.5/weather"
	httpTimeout   = 30 * time.Second
)

// Client fetches current weather from OpenWeatherMap.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// NewClient constructs a Client with the given API key.
func NewClient(apiKey string, log *slog.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: owmDefaultURL,
		client:  &http.Client{Timeout: httpTimeout},
		log:     log,
	}
}

// NewClientWithURL constructs a Client pointing at a custom base URL (for tests).
func NewClientWithURL(baseURL, apiKey string, log *slog.Logger) *Client {
	c := NewClient(apiKey, log)
	c.baseURL = baseURL
	return c
}

type owmResponse struct {
	Main *struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Fetch retrieves current conditions for the given city with metric units and
// Chinese descriptions. Failures of any kind — transport errors, non-JSON
// bodies, a response without the main block — come back as an error-shaped
// Snapshot; Fetch never returns a Go error, so callers have a single failure
// path to check.
func (c *Client) Fetch(ctx context.Context, city string) Snapshot {
	endpoint := c.baseURL + "?q=" + url.QueryEscape(city) + "&appid=" + c.apiKey + "&units=metric&lang=zh_cn"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.log.Error("building weather request failed", "city", city, "err", err)
		return errorSnapshot(fmt.Sprintf("查询 %s 天气时出错：%v", city, err))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("weather fetch failed", "city", city, "err", err)
		return errorSnapshot(fmt.Sprintf("查询 %s 天气时出错：%v", city, err))
	}
	defer resp.Body.Close()

	var raw owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		c.log.Warn("decoding weather response failed", "city", city, "err", err)
		return errorSnapshot(fmt.Sprintf("查询 %s 天气时出错：%v", city, err))
	}

	// OpenWeatherMap reports unknown cities and bad keys with a body that
	// lacks the main block, not always with a non-200 status.
	if raw.Main == nil {
		return errorSnapshot(fmt.Sprintf("未找到 %s 的天气信息", city))
	}

	description := ""
	if len(raw.Weather) > 0 {
		description = raw.Weather[0].Description
	}

	return Snapshot{
		City:        city,
		Temperature: fmt.Sprintf("%g °C", raw.Main.Temp),
		Description: description,
		Humidity:    fmt.Sprintf("%d%%", raw.Main.Humidity),
		WindSpeed:   fmt.Sprintf("%g m/s", raw.Wind.Speed),
	}
}
