package observation

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Store keeps a rolling window of readings per station or marine point, plus a
// single list of lightning events. Entries older than the retention horizon
// are pruned on every Record call, not on a timer. Within a key, readings stay
// in insertion order and duplicates are kept.
type Store struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	retention time.Duration

	weather   map[string][]StationReading
	marine    map[string][]MarineReading
	lightning []LightningEvent
}

// NewStore builds a Store with the given retention horizon.
func NewStore(retention time.Duration, clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		clock:     clock,
		retention: retention,
		weather:   make(map[string][]StationReading),
		marine:    make(map[string][]MarineReading),
	}
}

// Record appends every reading to its per-key sequence and prunes all
// sequences against the retention horizon.
func (s *Store) Record(weather []StationReading, marine []MarineReading, lightning []LightningEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range weather {
		s.weather[r.Station] = append(s.weather[r.Station], r)
	}
	for _, r := range marine {
		s.marine[r.Point] = append(s.marine[r.Point], r)
	}
	s.lightning = append(s.lightning, lightning...)

	cutoff := s.clock.Now().Add(-s.retention)

	for station, readings := range s.weather {
		s.weather[station] = pruneWeather(readings, cutoff)
	}
	for point, readings := range s.marine {
		s.marine[point] = pruneMarine(readings, cutoff)
	}
	s.lightning = pruneLightning(s.lightning, cutoff)
}

// WeatherHistory returns the retained readings for a station, oldest first.
func (s *Store) WeatherHistory(station string) []StationReading {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StationReading, len(s.weather[station]))
	copy(out, s.weather[station])
	return out
}

// MarineHistory returns the retained readings for a marine point, oldest first.
func (s *Store) MarineHistory(point string) []MarineReading {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MarineReading, len(s.marine[point]))
	copy(out, s.marine[point])
	return out
}

// LightningHistory returns all retained lightning events.
func (s *Store) LightningHistory() []LightningEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LightningEvent, len(s.lightning))
	copy(out, s.lightning)
	return out
}

// Sizes reports the number of retained readings per stream, for diagnostics.
func (s *Store) Sizes() (weather, marine, lightning int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, readings := range s.weather {
		weather += len(readings)
	}
	for _, readings := range s.marine {
		marine += len(readings)
	}
	return weather, marine, len(s.lightning)
}

func pruneWeather(readings []StationReading, cutoff time.Time) []StationReading {
	kept := readings[:0]
	for _, r := range readings {
		if r.Timestamp.After(cutoff) {
			kept = append(kept, r)
		}
	}
	return kept
}

func pruneMarine(readings []MarineReading, cutoff time.Time) []MarineReading {
	kept := readings[:0]
	for _, r := range readings {
		if r.Timestamp.After(cutoff) {
			kept = append(kept, r)
		}
	}
	return kept
}

func pruneLightning(events []LightningEvent, cutoff time.Time) []LightningEvent {
	kept := events[:0]
	for _, e := range events {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		}
	}
	return kept
}
