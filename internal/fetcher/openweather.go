package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"storm-radar/internal/observation"
)

const msToKMH = 3.6

// WeatherOptions parameterise the OpenWeatherMap client.
type WeatherOptions struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// OpenWeather fetches current conditions per station from OpenWeatherMap.
type OpenWeather struct {
	opts    WeatherOptions
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	clock   clockwork.Clock
	logger  zerolog.Logger
}

// NewOpenWeather constructs a weather fetcher.
func NewOpenWeather(opts WeatherOptions, clock clockwork.Clock, logger zerolog.Logger) *OpenWeather {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org/data/2.5/weather"
	}

	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &OpenWeather{
		opts:    opts,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: newBreaker("openweather"),
		clock:   clock,
		logger:  logger.With().Str("component", "weather_fetcher").Logger(),
	}
}

type openWeatherResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Pressure float64 `json:"pressure"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Visibility *float64 `json:"visibility"`
	Weather    []struct {
		Main string `json:"main"`
	} `json:"weather"`
}

// FetchStation retrieves the current reading for one station. Wind speed is
// converted from the API's m/s to km/h; the station's terrain class is carried
// over from configuration.
func (f *OpenWeather) FetchStation(ctx context.Context, station observation.Station) (observation.StationReading, error) {
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", station.Lat))
	values.Set("lon", fmt.Sprintf("%f", station.Lon))
	values.Set("appid", f.opts.APIKey)
	values.Set("units", "metric")

	endpoint := f.baseURL + "?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return observation.StationReading{}, err
	}

	var payload openWeatherResponse
	if err := getJSON(f.client, f.breaker, req, &payload); err != nil {
		return observation.StationReading{}, fmt.Errorf("fetch station %s: %w", station.Name, err)
	}

	condition := ""
	if len(payload.Weather) > 0 {
		condition = payload.Weather[0].Main
	}

	reading := observation.StationReading{
		Station:          station.Name,
		Timestamp:        f.clock.Now().UTC(),
		TemperatureC:     payload.Main.Temp,
		PressureHPa:      payload.Main.Pressure,
		HumidityPct:      payload.Main.Humidity,
		WindSpeedKMH:     payload.Wind.Speed * msToKMH,
		WindDirectionDeg: payload.Wind.Deg,
		VisibilityM:      payload.Visibility,
		Condition:        condition,
		Terrain:          station.Terrain,
	}

	f.logger.Debug().
		Str("station", station.Name).
		Float64("temperature_c", reading.TemperatureC).
		Float64("wind_kmh", reading.WindSpeedKMH).
		Float64("pressure_hpa", reading.PressureHPa).
		Msg("weather reading fetched")

	return reading, nil
}

var _ WeatherFetcher = (*OpenWeather)(nil)
