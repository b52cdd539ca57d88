package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storm-radar/internal/observation"
)

func testBoraConfig() BoraConfig {
	return BoraConfig{
		ReferenceStations:        []string{"Trieste", "Nova_Gorica", "Rijeka"},
		LocalStations:            []string{"Ancona", "Falconara"},
		PressureDiffThresholdHPa: 10.0,
		WindThresholdKMH:         40.0,
	}
}

func TestBoraNotDetectedWithoutReferenceStations(t *testing.T) {
	detector := NewBoraDetector(testBoraConfig())

	result := detector.Detect([]observation.StationReading{
		{Station: "Ancona", PressureHPa: 1010},
		{Station: "Macerata", PressureHPa: 1012},
	})

	assert.False(t, result.Detected)
	assert.Empty(t, result.Explanation)
}

func TestBoraNotDetectedWithoutLocalStations(t *testing.T) {
	detector := NewBoraDetector(testBoraConfig())

	result := detector.Detect([]observation.StationReading{
		{Station: "Trieste", PressureHPa: 1030, WindSpeedKMH: 55, WindDirectionDeg: 40},
	})

	assert.False(t, result.Detected)
	assert.Empty(t, result.Explanation)
}

func TestBoraDetectedFormatsOneDecimal(t *testing.T) {
	detector := NewBoraDetector(testBoraConfig())

	result := detector.Detect([]observation.StationReading{
		{Station: "Trieste", PressureHPa: 1025, WindSpeedKMH: 50, WindDirectionDeg: 45},
		{Station: "Ancona", PressureHPa: 1010},
	})

	require.True(t, result.Detected)
	assert.Contains(t, result.Explanation, "15.0")
	assert.Contains(t, result.Explanation, "50.0")
	assert.Contains(t, result.Stations, "Trieste")
}

func TestBoraDirectionalGateRejectsSoutherlyWind(t *testing.T) {
	detector := NewBoraDetector(testBoraConfig())

	// Strong wind, but from the south: the NE-quadrant gate stays closed.
	result := detector.Detect([]observation.StationReading{
		{Station: "Rijeka", PressureHPa: 1028, WindSpeedKMH: 60, WindDirectionDeg: 180},
		{Station: "Ancona", PressureHPa: 1010},
	})

	assert.False(t, result.Detected)
}

func TestBoraGateNeedsMinimumWindSpeed(t *testing.T) {
	detector := NewBoraDetector(testBoraConfig())

	// Direction fits, but no reference reading above the 30 km/h gate. The
	// 45 km/h reading blows from the west, so it cannot open the gate either.
	result := detector.Detect([]observation.StationReading{
		{Station: "Trieste", PressureHPa: 1030, WindSpeedKMH: 28, WindDirectionDeg: 45},
		{Station: "Rijeka", PressureHPa: 1030, WindSpeedKMH: 45, WindDirectionDeg: 270},
		{Station: "Ancona", PressureHPa: 1012},
	})

	assert.False(t, result.Detected)
}

func TestBoraBoundaryDirectionsInclusive(t *testing.T) {
	detector := NewBoraDetector(testBoraConfig())

	for _, deg := range []float64{0, 90} {
		result := detector.Detect([]observation.StationReading{
			{Station: "Trieste", PressureHPa: 1026, WindSpeedKMH: 50, WindDirectionDeg: deg},
			{Station: "Falconara", PressureHPa: 1010},
		})
		assert.True(t, result.Detected, "direction %.0f should open the gate", deg)
	}
}
