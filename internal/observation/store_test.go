package observation

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePrunesExpiredReadings(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewStore(12*time.Hour, clock)

	stale := StationReading{Station: "Trieste", Timestamp: clock.Now().Add(-13 * time.Hour), PressureHPa: 1010}
	store.Record([]StationReading{stale}, nil, nil)

	fresh := StationReading{Station: "Trieste", Timestamp: clock.Now().Add(-time.Minute), PressureHPa: 1021}
	store.Record([]StationReading{fresh}, nil, nil)

	history := store.WeatherHistory("Trieste")
	require.Len(t, history, 1)
	assert.Equal(t, 1021.0, history[0].PressureHPa)
}

func TestStoreKeepsDuplicatesInInsertionOrder(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewStore(12*time.Hour, clock)

	ts := clock.Now()
	first := StationReading{Station: "Ancona", Timestamp: ts, TemperatureC: 18}
	second := StationReading{Station: "Ancona", Timestamp: ts, TemperatureC: 19}

	store.Record([]StationReading{first}, nil, nil)
	store.Record([]StationReading{second, first}, nil, nil)

	history := store.WeatherHistory("Ancona")
	require.Len(t, history, 3)
	assert.Equal(t, []float64{18, 19, 18}, []float64{history[0].TemperatureC, history[1].TemperatureC, history[2].TemperatureC})
}

func TestStorePrunesAllStreams(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewStore(time.Hour, clock)

	old := clock.Now().Add(-2 * time.Hour)
	store.Record(
		[]StationReading{{Station: "Rijeka", Timestamp: old}},
		[]MarineReading{{Point: "Ancona_Bay", Timestamp: old}},
		[]LightningEvent{{Timestamp: old}},
	)

	clock.Advance(10 * time.Minute)
	store.Record(nil, []MarineReading{{Point: "Ancona_Bay", Timestamp: clock.Now()}}, nil)

	weather, marine, lightning := store.Sizes()
	assert.Equal(t, 0, weather)
	assert.Equal(t, 1, marine)
	assert.Equal(t, 0, lightning)
	assert.Empty(t, store.WeatherHistory("Rijeka"))
	assert.Empty(t, store.LightningHistory())
	require.Len(t, store.MarineHistory("Ancona_Bay"), 1)
}
