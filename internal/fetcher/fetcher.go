package fetcher

import (
	"context"

	"storm-radar/internal/observation"
)

// WeatherFetcher retrieves the current reading for one station.
type WeatherFetcher interface {
	FetchStation(ctx context.Context, station observation.Station) (observation.StationReading, error)
}

// MarineFetcher retrieves the current sea state for one monitoring point.
type MarineFetcher interface {
	FetchPoint(ctx context.Context, point observation.MarinePoint) (observation.MarineReading, error)
}

// LightningFetcher retrieves recent strikes within a search radius. An empty
// result is a legitimate steady state, not an error.
type LightningFetcher interface {
	FetchStrikes(ctx context.Context, radiusKM float64) ([]observation.LightningEvent, error)
}
