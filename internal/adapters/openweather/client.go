package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/pkg/geospatial"
)

// Client implements ports.WeatherProvider against the OpenWeather current
// weather API. Without an API key, or when the API is unreachable, it serves
// deterministic mock conditions so the rest of the system keeps working.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// New creates a weather client. baseURL defaults to the public API.
func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org/data/2.5"
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type currentResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Snow struct {
		OneHour float64 `json:"1h"`
	} `json:"snow"`
}

// Current fetches conditions for a coordinate, in metric units.
func (c *Client) Current(ctx context.Context, lat, lng float64) (*domain.WeatherSnapshot, error) {
	if c.apiKey == "" {
		return c.mock(lat, lng), nil
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', 4, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("weather request failed, serving mock", "error", err)
		return c.mock(lat, lng), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("weather API returned non-200, serving mock", "status", resp.StatusCode)
		return c.mock(lat, lng), nil
	}

	var out currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}

	snap := &domain.WeatherSnapshot{
		Location:      geospatial.Point{Lat: lat, Lng: lng},
		Temp:          out.Main.Temp,
		FeelsLike:     out.Main.FeelsLike,
		Humidity:      out.Main.Humidity,
		Pressure:      out.Main.Pressure,
		WindSpeed:     out.Wind.Speed,
		Precipitation: out.Rain.OneHour + out.Snow.OneHour,
		ObservedAt:    time.Now().UTC(),
	}
	if len(out.Weather) > 0 {
		snap.Condition = out.Weather[0].Description
	}
	return snap, nil
}

// mock derives plausible conditions from the calendar and the coordinate
// alone, so repeated polls for the same field stay consistent.
func (c *Client) mock(lat, lng float64) *domain.WeatherSnapshot {
	now := time.Now().UTC()
	day := float64(now.YearDay())

	// Cold trough in mid-January, warm crest in mid-July, damped towards
	// the equator. Southern hemisphere flips the phase.
	seasonal := -math.Cos(2 * math.Pi * (day - 15) / 365)
	if lat < 0 {
		seasonal = -seasonal
	}
	amplitude := 14 * math.Min(math.Abs(lat)/55, 1)
	temp := 8 + seasonal*amplitude + 1.5*math.Sin(lng*math.Pi/180)

	precipitation := 0.0
	condition := "clear sky"
	if now.YearDay()%5 == 0 {
		precipitation = 2.0
		condition = "light rain"
	}

	return &domain.WeatherSnapshot{
		Location:      geospatial.Point{Lat: lat, Lng: lng},
		Temp:          round1(temp),
		FeelsLike:     round1(temp - 1.5),
		Humidity:      round1(60 + 15*math.Sin(2*math.Pi*day/29)),
		Pressure:      1013,
		WindSpeed:     3.2,
		Precipitation: precipitation,
		Condition:     condition,
		ObservedAt:    now,
		Mock:          true,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
