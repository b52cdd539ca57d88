package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storm-radar/internal/alert"
	"storm-radar/internal/alerting"
	"storm-radar/internal/fetcher"
	"storm-radar/internal/observability"
	"storm-radar/internal/observation"
	"storm-radar/internal/scoring"
)

type staticWeather struct {
	reading observation.StationReading
	err     error
}

func (f staticWeather) FetchStation(_ context.Context, station observation.Station) (observation.StationReading, error) {
	if f.err != nil {
		return observation.StationReading{}, f.err
	}
	r := f.reading
	r.Station = station.Name
	return r, nil
}

type staticMarine struct{}

func (staticMarine) FetchPoint(_ context.Context, point observation.MarinePoint) (observation.MarineReading, error) {
	return observation.MarineReading{}, errors.New("marine unavailable")
}

type fakeNotifier struct {
	calls    int
	lastMsg  string
	failWith error
}

func (n *fakeNotifier) Notify(_ context.Context, message string) error {
	n.calls++
	n.lastMsg = message
	if n.failWith != nil {
		return n.failWith
	}
	return nil
}

func newTestService(t *testing.T, clock clockwork.Clock, weather staticWeather, notifier alerting.Notifier) *Service {
	t.Helper()
	logger := zerolog.Nop()

	agg := fetcher.NewAggregator(fetcher.AggregatorOptions{
		Weather: weather,
		Marine:  staticMarine{},
		Stations: []observation.Station{
			{Name: "Falconara", Lat: 43.61, Lon: 13.36},
		},
		Clock: clock,
	}, logger)

	calc := scoring.NewCalculator(scoring.Config{
		Bora: scoring.BoraConfig{
			ReferenceStations:        []string{"Trieste"},
			LocalStations:            []string{"Falconara"},
			PressureDiffThresholdHPa: 10,
			WindThresholdKMH:         40,
		},
		WavePeriodThresholdS:        4,
		WaveHeightThresholdM:        1.5,
		LightningDensityThreshold:   10,
		LightningApproachDistanceKM: 50,
		ThermalGradientThresholdC:   8,
		HighWindThresholdKMH:        25,
	}, clock, logger)

	return New(Options{
		Aggregator:    agg,
		Store:         observation.NewStore(12*time.Hour, clock),
		Calculator:    calc,
		Gate:          alerting.NewGate(alert.LevelLow, clock),
		Formatter:     alerting.NewFormatter("Falconara Marittima", alerting.TelegramMaxMessageLen),
		Notifier:      notifier,
		AlertsEnabled: true,
		Metrics:       observability.NewMetricsForTesting(),
		Clock:         clock,
	}, logger)
}

func TestCycleSendsAlertAndAdvancesState(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC))
	notifier := &fakeNotifier{}

	weather := staticWeather{reading: observation.StationReading{
		Timestamp:        clock.Now(),
		WindSpeedKMH:     42,
		HumidityPct:      90,
		PressureHPa:      1008,
		WindDirectionDeg: 45,
		Condition:        "Thunderstorm",
	}}

	svc := newTestService(t, clock, weather, notifier)
	require.NoError(t, svc.Cycle(context.Background(), clock.Now()))

	assert.Equal(t, 1, notifier.calls)
	assert.Contains(t, notifier.lastMsg, "Falconara Marittima")

	state := svc.State()
	assert.Equal(t, clock.Now(), state.LastNotificationAt)
	assert.InDelta(t, 30.0, state.LastNotifiedScore, 0.001)
}

func TestCycleDeliveryFailureKeepsState(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC))
	notifier := &fakeNotifier{failWith: errors.New("telegram unreachable")}

	weather := staticWeather{reading: observation.StationReading{
		Timestamp:    clock.Now(),
		WindSpeedKMH: 42,
		HumidityPct:  90,
		Condition:    "Thunderstorm",
	}}

	svc := newTestService(t, clock, weather, notifier)
	require.NoError(t, svc.Cycle(context.Background(), clock.Now()))

	assert.Equal(t, 1, notifier.calls)
	assert.True(t, svc.State().LastNotificationAt.IsZero(), "failed delivery must not advance state")

	// The very next cycle retries because the gate still sees no prior send.
	notifier.failWith = nil
	clock.Advance(time.Minute)
	require.NoError(t, svc.Cycle(context.Background(), clock.Now()))
	assert.Equal(t, 2, notifier.calls)
	assert.False(t, svc.State().LastNotificationAt.IsZero())
}

func TestCycleSkipsWhenNoWeatherData(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC))
	notifier := &fakeNotifier{}

	weather := staticWeather{err: errors.New("provider down")}
	svc := newTestService(t, clock, weather, notifier)

	require.NoError(t, svc.Cycle(context.Background(), clock.Now()))
	assert.Equal(t, 0, notifier.calls)
}

func TestCycleSuppressedBelowMinLevel(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC))
	notifier := &fakeNotifier{}

	weather := staticWeather{reading: observation.StationReading{
		Timestamp:   clock.Now(),
		HumidityPct: 90, // only the humidity bump: score 5, below every gate floor
	}}

	svc := newTestService(t, clock, weather, notifier)
	require.NoError(t, svc.Cycle(context.Background(), clock.Now()))
	assert.Equal(t, 0, notifier.calls)
	assert.True(t, svc.State().LastNotificationAt.IsZero())
}

func TestRunWithoutSchedulerFails(t *testing.T) {
	svc := New(Options{}, zerolog.Nop())
	assert.Error(t, svc.Run(context.Background()))
}
