package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"storm-radar/internal/observation"
)

func marinePayload(hour int, height, period float64) []byte {
	heights := make([]*float64, 24)
	periods := make([]*float64, 24)
	directions := make([]*float64, 24)
	heights[hour] = &height
	periods[hour] = &period

	payload := map[string]any{"hourly": map[string]any{
		"wave_height":    heights,
		"wave_period":    periods,
		"wave_direction": directions,
	}}
	body, _ := json.Marshal(payload)
	return body
}

func TestOpenMeteoMarineUsesCurrentHourSlot(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 2, 7, 10, 15, 0, 0, time.UTC))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("forecast_days") != "1" {
			t.Fatalf("expected single forecast day: %s", r.URL.RawQuery)
		}
		_, _ = w.Write(marinePayload(10, 2.4, 3.1))
	}))
	defer srv.Close()

	fetcher := NewOpenMeteoMarine(MarineOptions{BaseURL: srv.URL, Timeout: time.Second}, clock, noopLogger())

	reading, err := fetcher.FetchPoint(context.Background(), observation.MarinePoint{Name: "Ancona_Bay", Lat: 43.6, Lon: 13.5})
	if err != nil {
		t.Fatalf("FetchPoint should succeed: %v", err)
	}

	if reading.WaveHeightM != 2.4 {
		t.Fatalf("unexpected wave height: %f", reading.WaveHeightM)
	}
	if reading.WavePeriodS != 3.1 {
		t.Fatalf("unexpected wave period: %f", reading.WavePeriodS)
	}
	if reading.SeaTemperatureC != defaultSeaTempC {
		t.Fatalf("sea temperature should default: %f", reading.SeaTemperatureC)
	}
}

func TestOpenMeteoMarineDefaultsMissingSlots(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 2, 7, 5, 0, 0, 0, time.UTC))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hourly": {"wave_height": [], "wave_period": [], "wave_direction": []}}`))
	}))
	defer srv.Close()

	fetcher := NewOpenMeteoMarine(MarineOptions{BaseURL: srv.URL, Timeout: time.Second}, clock, noopLogger())

	reading, err := fetcher.FetchPoint(context.Background(), observation.MarinePoint{Name: "Rimini_Offshore"})
	if err != nil {
		t.Fatalf("empty hourly arrays should not fail: %v", err)
	}

	if reading.WaveHeightM != 0 {
		t.Fatalf("wave height should default to 0: %f", reading.WaveHeightM)
	}
	if reading.WavePeriodS != defaultWavePeriodS {
		t.Fatalf("wave period should default to %f: %f", defaultWavePeriodS, reading.WavePeriodS)
	}
}

func TestBlitzortungDisabledReturnsEmpty(t *testing.T) {
	fetcher := NewBlitzortung(LightningOptions{Enabled: false}, noopLogger())

	events, err := fetcher.FetchStrikes(context.Background(), 100)
	if err != nil {
		t.Fatalf("disabled fetcher should not fail: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("disabled fetcher should return no events, got %d", len(events))
	}
}

func TestBlitzortungComputesDistance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"strikes": [{"time": 1770000000, "lat": 43.6167, "lon": 13.4, "intensity": 12.3}]}`))
	}))
	defer srv.Close()

	fetcher := NewBlitzortung(LightningOptions{
		Enabled:   true,
		BaseURL:   srv.URL,
		Timeout:   time.Second,
		TargetLat: 43.6167,
		TargetLon: 13.4,
	}, noopLogger())

	events, err := fetcher.FetchStrikes(context.Background(), 100)
	if err != nil {
		t.Fatalf("FetchStrikes should succeed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	if events[0].DistanceKM > 0.001 {
		t.Fatalf("strike at the target should have ~0 distance, got %f", events[0].DistanceKM)
	}
}
