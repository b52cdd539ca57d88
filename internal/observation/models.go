package observation

import "time"

// TerrainClass categorises a station's surroundings for gradient analysis.
type TerrainClass string

const (
	TerrainCoastal  TerrainClass = "coastal"
	TerrainInland   TerrainClass = "inland"
	TerrainMountain TerrainClass = "mountain"
)

// Station describes a monitored weather station.
type Station struct {
	Name       string       `mapstructure:"name"`
	Lat        float64      `mapstructure:"lat"`
	Lon        float64      `mapstructure:"lon"`
	DistanceKM float64      `mapstructure:"distance_km"`
	Direction  string       `mapstructure:"direction"`
	Priority   int          `mapstructure:"priority"`
	Terrain    TerrainClass `mapstructure:"terrain"`
}

// MarinePoint describes an offshore monitoring point.
type MarinePoint struct {
	Name string  `mapstructure:"name"`
	Lat  float64 `mapstructure:"lat"`
	Lon  float64 `mapstructure:"lon"`
}

// StationReading is one weather observation for a station. Immutable once
// produced by a fetcher.
type StationReading struct {
	Station          string
	Timestamp        time.Time
	TemperatureC     float64
	PressureHPa      float64
	HumidityPct      float64
	WindSpeedKMH     float64
	WindDirectionDeg float64
	VisibilityM      *float64
	Condition        string
	Terrain          TerrainClass
}

// MarineReading is one sea-state observation for a monitoring point.
type MarineReading struct {
	Point            string
	Timestamp        time.Time
	WaveHeightM      float64
	WavePeriodS      float64
	WaveDirectionDeg float64
	SeaTemperatureC  float64
}

// LightningEvent is a single detected strike.
type LightningEvent struct {
	Timestamp  time.Time
	Lat        float64
	Lon        float64
	DistanceKM float64
	Intensity  float64
}
