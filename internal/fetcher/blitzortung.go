package fetcher

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"storm-radar/internal/observation"
)

// LightningOptions parameterise the Blitzortung strike client.
type LightningOptions struct {
	Enabled   bool
	BaseURL   string
	Timeout   time.Duration
	TargetLat float64
	TargetLon float64
}

// Blitzortung fetches recent strikes around the target. Disabled deployments
// return an empty list, which the rest of the pipeline treats as "no data",
// never as an error.
type Blitzortung struct {
	opts    LightningOptions
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

// NewBlitzortung constructs a lightning fetcher.
func NewBlitzortung(opts LightningOptions, logger zerolog.Logger) *Blitzortung {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Blitzortung{
		opts:    opts,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		breaker: newBreaker("blitzortung"),
		logger:  logger.With().Str("component", "lightning_fetcher").Logger(),
	}
}

type strikeResponse struct {
	Strikes []struct {
		Time      int64   `json:"time"`
		Lat       float64 `json:"lat"`
		Lon       float64 `json:"lon"`
		Intensity float64 `json:"intensity"`
	} `json:"strikes"`
}

// FetchStrikes retrieves strikes within radiusKM of the target.
func (f *Blitzortung) FetchStrikes(ctx context.Context, radiusKM float64) ([]observation.LightningEvent, error) {
	if !f.opts.Enabled || f.baseURL == "" {
		f.logger.Debug().Msg("lightning fetch skipped; provider disabled")
		return nil, nil
	}

	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", f.opts.TargetLat))
	values.Set("lon", fmt.Sprintf("%f", f.opts.TargetLon))
	values.Set("radius", fmt.Sprintf("%f", radiusKM))

	endpoint := f.baseURL + "?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var payload strikeResponse
	if err := getJSON(f.client, f.breaker, req, &payload); err != nil {
		return nil, fmt.Errorf("fetch strikes: %w", err)
	}

	events := make([]observation.LightningEvent, 0, len(payload.Strikes))
	for _, s := range payload.Strikes {
		events = append(events, observation.LightningEvent{
			Timestamp:  time.Unix(s.Time, 0).UTC(),
			Lat:        s.Lat,
			Lon:        s.Lon,
			DistanceKM: haversineKM(f.opts.TargetLat, f.opts.TargetLon, s.Lat, s.Lon),
			Intensity:  s.Intensity,
		})
	}

	f.logger.Debug().Int("strikes", len(events)).Msg("lightning events fetched")
	return events, nil
}

const earthRadiusKM = 6371.0

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

var _ LightningFetcher = (*Blitzortung)(nil)
