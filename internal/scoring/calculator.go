package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"storm-radar/internal/alert"
	"storm-radar/internal/observation"
)

// Score contributions per bucket. The order of evaluation is fixed; it drives
// the reasons list ordering and the CRITICAL override, not the arithmetic.
const (
	boraScore      = 60.0
	marineScore    = 25.0
	lightningScore = 30.0
	thermalScore   = 15.0

	highWindScore   = 10.0
	stormyCondScore = 15.0
	humidityScore   = 5.0

	maxScore = 100.0

	humidityThresholdPct = 85.0
	lightningRecency     = 10 * time.Minute
)

// Conditions the generic per-station bucket treats as stormy.
var stormyConditions = map[string]struct{}{
	"Thunderstorm": {},
	"Rain":         {},
}

// ETA buckets, coarse by design.
const (
	etaBora      = "15-45 minutes (BORA - IMMEDIATE DANGER)"
	etaLightning = "30-60 minutes"
	etaMarine    = "45-90 minutes"
	etaInland    = "1-2 hours"
	etaDefault   = "2-3 hours"
)

// Config carries every scoring threshold with its default already resolved.
type Config struct {
	Bora BoraConfig

	WavePeriodThresholdS float64
	WaveHeightThresholdM float64

	LightningDensityThreshold   int
	LightningApproachDistanceKM float64

	ThermalGradientThresholdC float64

	HighWindThresholdKMH float64

	// InlandFormationStations drive the "1-2 hours" ETA bucket: storms forming
	// over these Apennine stations take longer to reach the coast.
	InlandFormationStations []string
}

// Calculator turns one cycle's readings into a risk assessment. Deterministic
// given its inputs and configuration; the clock only feeds the lightning
// recency filter.
type Calculator struct {
	cfg    Config
	bora   *BoraDetector
	clock  clockwork.Clock
	logger zerolog.Logger
}

// NewCalculator wires the calculator and its Bora detector.
func NewCalculator(cfg Config, clock clockwork.Clock, logger zerolog.Logger) *Calculator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Calculator{
		cfg:    cfg,
		bora:   NewBoraDetector(cfg.Bora),
		clock:  clock,
		logger: logger.With().Str("component", "calculator").Logger(),
	}
}

// Calculate produces the composite assessment. Empty input for all three
// streams is a valid cycle and yields (0, no reasons, LOW).
func (c *Calculator) Calculate(
	weather []observation.StationReading,
	marine []observation.MarineReading,
	lightning []observation.LightningEvent,
) alert.Assessment {
	score := 0.0
	var reasons []alert.Reason
	level := alert.LevelLow

	// 1. Bora. Highest priority; forces CRITICAL and is never downgraded.
	bora := c.bora.Detect(weather)
	if bora.Detected {
		score += boraScore
		reasons = append(reasons, alert.Reason{
			Category: alert.CategoryBora,
			Text:     "BORA PATTERN DETECTED: " + bora.Explanation,
			Stations: bora.Stations,
		})
		level = alert.LevelCritical
	}

	// 2. Marine. A flat bonus once, however many readings breach thresholds.
	if reason, flagged := c.marineReason(marine); flagged {
		score += marineScore
		reasons = append(reasons, reason)
	}

	// 3. Lightning density within approach distance.
	if reason, flagged := c.lightningReason(lightning); flagged {
		score += lightningScore
		reasons = append(reasons, reason)
	}

	// 4. Thermal gradient between inland and coastal stations.
	if reason, flagged := c.thermalReason(weather); flagged {
		score += thermalScore
		reasons = append(reasons, reason)
	}

	// 5. Generic per-station contributions. Numeric only, no reason text, and
	// deliberately uncapped before the final clamp.
	score += genericStationScore(weather, c.cfg.HighWindThresholdKMH)

	if level != alert.LevelCritical {
		switch {
		case score > 70:
			level = alert.LevelHigh
		case score > 40:
			level = alert.LevelMedium
		case score > 20:
			level = alert.LevelLow
		}
	}

	assessment := alert.Assessment{
		Score:   math.Min(score, maxScore),
		Reasons: reasons,
		Level:   level,
	}
	assessment.ETA = c.eta(assessment, bora.Detected)

	c.logger.Debug().
		Float64("score", assessment.Score).
		Str("level", assessment.Level.String()).
		Str("eta", assessment.ETA).
		Int("reasons", len(assessment.Reasons)).
		Msg("assessment computed")

	return assessment
}

func (c *Calculator) marineReason(marine []observation.MarineReading) (alert.Reason, bool) {
	var fragments []string
	var points []string
	for _, r := range marine {
		flagged := false
		if r.WavePeriodS < c.cfg.WavePeriodThresholdS {
			fragments = append(fragments, fmt.Sprintf("%s: Short wave period %ss", r.Point, alert.Fixed(r.WavePeriodS, 1)))
			flagged = true
		}
		if r.WaveHeightM > c.cfg.WaveHeightThresholdM {
			fragments = append(fragments, fmt.Sprintf("%s: High waves %sm", r.Point, alert.Fixed(r.WaveHeightM, 1)))
			flagged = true
		}
		if flagged {
			points = appendUnique(points, r.Point)
		}
	}

	if len(fragments) == 0 {
		return alert.Reason{}, false
	}
	return alert.Reason{
		Category: alert.CategoryMarine,
		Text:     strings.Join(fragments, "; "),
		Stations: points,
	}, true
}

func (c *Calculator) lightningReason(events []observation.LightningEvent) (alert.Reason, bool) {
	recent := c.clock.Now().Add(-lightningRecency)

	count := 0
	totalDistance := 0.0
	for _, e := range events {
		if e.Timestamp.After(recent) && e.DistanceKM < c.cfg.LightningApproachDistanceKM {
			count++
			totalDistance += e.DistanceKM
		}
	}

	if count <= c.cfg.LightningDensityThreshold {
		return alert.Reason{}, false
	}

	avgDistance := totalDistance / float64(count)
	return alert.Reason{
		Category: alert.CategoryLightning,
		Text:     fmt.Sprintf("Lightning approaching: %d strikes, avg distance %skm", count, alert.Fixed(avgDistance, 1)),
	}, true
}

func (c *Calculator) thermalReason(weather []observation.StationReading) (alert.Reason, bool) {
	var coastal, inland []float64
	for _, r := range weather {
		switch r.Terrain {
		case observation.TerrainCoastal:
			coastal = append(coastal, r.TemperatureC)
		case observation.TerrainInland:
			inland = append(inland, r.TemperatureC)
		}
	}

	if len(coastal) == 0 || len(inland) == 0 {
		return alert.Reason{}, false
	}

	avgCoastal := mean(coastal)
	avgInland := mean(inland)
	gradient := math.Abs(avgInland - avgCoastal)

	if gradient <= c.cfg.ThermalGradientThresholdC {
		return alert.Reason{}, false
	}

	return alert.Reason{
		Category: alert.CategoryThermal,
		Text: fmt.Sprintf(
			"High thermal gradient: %s°C difference (Inland: %s°C, Coastal: %s°C)",
			alert.Fixed(gradient, 1), alert.Fixed(avgInland, 1), alert.Fixed(avgCoastal, 1),
		),
	}, true
}

func genericStationScore(weather []observation.StationReading, highWindKMH float64) float64 {
	score := 0.0
	for _, r := range weather {
		if r.WindSpeedKMH > highWindKMH {
			score += highWindScore
		}
		if _, stormy := stormyConditions[r.Condition]; stormy {
			score += stormyCondScore
		}
		if r.HumidityPct > humidityThresholdPct {
			score += humidityScore
		}
	}
	return score
}

func (c *Calculator) eta(a alert.Assessment, boraDetected bool) string {
	switch {
	case boraDetected:
		return etaBora
	case a.HasCategory(alert.CategoryLightning):
		return etaLightning
	case a.HasCategory(alert.CategoryMarine):
		return etaMarine
	case a.Mentions(c.cfg.InlandFormationStations):
		return etaInland
	default:
		return etaDefault
	}
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func appendUnique(names []string, name string) []string {
	for _, existing := range names {
		if existing == name {
			return names
		}
	}
	return append(names, name)
}
