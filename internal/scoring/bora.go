package scoring

import (
	"fmt"

	"storm-radar/internal/alert"
	"storm-radar/internal/observation"
)

// BoraConfig parameterises the downslope-wind detector.
type BoraConfig struct {
	// ReferenceStations are the northeast upstream stations; LocalStations sit
	// at the target coast. Membership is by station name.
	ReferenceStations []string
	LocalStations     []string

	PressureDiffThresholdHPa float64
	WindThresholdKMH         float64
}

// Directional gate: a reference station must already report wind above this
// speed, blowing from the NE quadrant, before a Bora is plausible.
const (
	boraGateWindKMH = 30.0
	boraGateMinDeg  = 0.0
	boraGateMaxDeg  = 90.0
)

// BoraResult is the verdict of one detection pass.
type BoraResult struct {
	Detected            bool
	PressureDiffHPa     float64
	MaxReferenceWindKMH float64
	Explanation         string
	Stations            []string
}

// BoraDetector recognises the Adriatic Bora pattern: a pressure differential
// between the NE reference stations and the local coast, combined with strong
// NE-quadrant winds upstream.
type BoraDetector struct {
	cfg       BoraConfig
	reference map[string]struct{}
	local     map[string]struct{}
}

// NewBoraDetector builds a detector from the configured station name sets.
func NewBoraDetector(cfg BoraConfig) *BoraDetector {
	return &BoraDetector{
		cfg:       cfg,
		reference: nameSet(cfg.ReferenceStations),
		local:     nameSet(cfg.LocalStations),
	}
}

// Detect inspects the current cycle's readings only; retained history plays no
// part. An empty reference or local subset is a not-detected verdict, never an
// error.
func (d *BoraDetector) Detect(readings []observation.StationReading) BoraResult {
	var reference, local []observation.StationReading
	for _, r := range readings {
		if _, ok := d.reference[r.Station]; ok {
			reference = append(reference, r)
		}
		if _, ok := d.local[r.Station]; ok {
			local = append(local, r)
		}
	}

	if len(reference) == 0 || len(local) == 0 {
		return BoraResult{}
	}

	pressureDiff := meanPressure(reference) - meanPressure(local)

	maxWind := 0.0
	gateOpen := false
	stations := make([]string, 0, len(reference))
	for _, r := range reference {
		if r.WindSpeedKMH > maxWind {
			maxWind = r.WindSpeedKMH
		}
		if r.WindSpeedKMH > boraGateWindKMH && r.WindDirectionDeg >= boraGateMinDeg && r.WindDirectionDeg <= boraGateMaxDeg {
			gateOpen = true
		}
		stations = append(stations, r.Station)
	}

	result := BoraResult{
		PressureDiffHPa:     pressureDiff,
		MaxReferenceWindKMH: maxWind,
		Stations:            stations,
	}

	if pressureDiff > d.cfg.PressureDiffThresholdHPa && maxWind > d.cfg.WindThresholdKMH && gateOpen {
		result.Detected = true
		result.Explanation = fmt.Sprintf(
			"Pressure diff %shPa, NE winds %skm/h",
			alert.Fixed(pressureDiff, 1), alert.Fixed(maxWind, 1),
		)
	}

	return result
}

func meanPressure(readings []observation.StationReading) float64 {
	sum := 0.0
	for _, r := range readings {
		sum += r.PressureHPa
	}
	return sum / float64(len(readings))
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}
