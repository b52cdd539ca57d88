package fetcher

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"storm-radar/internal/observability"
	"storm-radar/internal/observation"
)

// Aggregator fetches all three streams serially, with a small courtesy delay
// between provider calls. A failed call yields an absent reading for that
// source; the batch never fails as a whole.
type Aggregator struct {
	weather   WeatherFetcher
	marine    MarineFetcher
	lightning LightningFetcher

	stations []observation.Station
	points   []observation.MarinePoint
	radiusKM float64
	delay    time.Duration

	metrics *observability.Metrics
	clock   clockwork.Clock
	logger  zerolog.Logger
}

// AggregatorOptions wire the per-source fetchers and the fetch plan.
type AggregatorOptions struct {
	Weather   WeatherFetcher
	Marine    MarineFetcher
	Lightning LightningFetcher

	Stations      []observation.Station
	MarinePoints  []observation.MarinePoint
	RadiusKM      float64
	CourtesyDelay time.Duration

	Metrics *observability.Metrics
	Clock   clockwork.Clock
}

// NewAggregator constructs the batch fetcher.
func NewAggregator(opts AggregatorOptions, logger zerolog.Logger) *Aggregator {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Aggregator{
		weather:   opts.Weather,
		marine:    opts.Marine,
		lightning: opts.Lightning,
		stations:  opts.Stations,
		points:    opts.MarinePoints,
		radiusKM:  opts.RadiusKM,
		delay:     opts.CourtesyDelay,
		metrics:   opts.Metrics,
		clock:     clock,
		logger:    logger.With().Str("component", "aggregator").Logger(),
	}
}

// FetchAll collects the complete batch for one cycle.
func (a *Aggregator) FetchAll(ctx context.Context) ([]observation.StationReading, []observation.MarineReading, []observation.LightningEvent) {
	weather := make([]observation.StationReading, 0, len(a.stations))
	for _, station := range a.stations {
		reading, err := a.weather.FetchStation(ctx, station)
		if err != nil {
			a.logger.Warn().Err(err).Str("station", station.Name).Msg("weather fetch failed")
			a.countError("weather")
		} else {
			weather = append(weather, reading)
			a.countFetched("weather")
		}
		a.pause(ctx)
	}

	marine := make([]observation.MarineReading, 0, len(a.points))
	for _, point := range a.points {
		reading, err := a.marine.FetchPoint(ctx, point)
		if err != nil {
			a.logger.Warn().Err(err).Str("point", point.Name).Msg("marine fetch failed")
			a.countError("marine")
		} else {
			marine = append(marine, reading)
			a.countFetched("marine")
		}
		a.pause(ctx)
	}

	var lightning []observation.LightningEvent
	if a.lightning != nil {
		strikes, err := a.lightning.FetchStrikes(ctx, a.radiusKM)
		if err != nil {
			a.logger.Warn().Err(err).Msg("lightning fetch failed")
			a.countError("lightning")
		} else {
			lightning = strikes
			for range lightning {
				a.countFetched("lightning")
			}
		}
	}

	a.logger.Info().
		Int("weather", len(weather)).
		Int("marine", len(marine)).
		Int("lightning", len(lightning)).
		Msg("batch fetched")

	return weather, marine, lightning
}

func (a *Aggregator) pause(ctx context.Context) {
	if a.delay <= 0 {
		return
	}
	timer := a.clock.NewTimer(a.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.Chan():
	}
}

func (a *Aggregator) countError(source string) {
	if a.metrics != nil {
		a.metrics.FetchErrors.WithLabelValues(source).Inc()
	}
}

func (a *Aggregator) countFetched(source string) {
	if a.metrics != nil {
		a.metrics.ReadingsFetched.WithLabelValues(source).Inc()
	}
}
