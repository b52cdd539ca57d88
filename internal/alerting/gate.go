package alerting

import (
	"time"

	"github.com/jonboulle/clockwork"

	"storm-radar/internal/alert"
)

// State is the notification history the gate decides against. The gate never
// mutates it; the caller records a new snapshot only after the transport
// confirmed delivery.
type State struct {
	// LastNotificationAt is zero when nothing has been delivered yet.
	LastNotificationAt time.Time
	LastNotifiedScore  float64
}

// Per-level cooldowns and the score jump that overrides them.
const (
	highCooldown   = 20 * time.Minute
	mediumCooldown = 45 * time.Minute
	lowCooldown    = 2 * time.Hour

	scoreJump = 25.0
)

// Gate applies the hysteresis policy deciding whether an assessment warrants a
// notification right now.
type Gate struct {
	minLevel alert.Level
	clock    clockwork.Clock
}

// NewGate builds a gate with the configured minimum severity floor.
func NewGate(minLevel alert.Level, clock clockwork.Clock) *Gate {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Gate{minLevel: minLevel, clock: clock}
}

// ShouldNotify is a pure query over the state snapshot. The minimum-level
// floor is absolute: even a large score jump cannot pass it. CRITICAL bypasses
// every cooldown. Cooldown comparisons are inclusive at the boundary.
func (g *Gate) ShouldNotify(score float64, level alert.Level, state State) bool {
	if level < g.minLevel {
		return false
	}

	if level == alert.LevelCritical {
		return true
	}

	switch level {
	case alert.LevelHigh:
		if score > 60 && g.cooldownElapsed(state, highCooldown) {
			return true
		}
	case alert.LevelMedium:
		if score > 40 && g.cooldownElapsed(state, mediumCooldown) {
			return true
		}
	case alert.LevelLow:
		if score > 20 && g.cooldownElapsed(state, lowCooldown) {
			return true
		}
	}

	return score > state.LastNotifiedScore+scoreJump
}

func (g *Gate) cooldownElapsed(state State, cooldown time.Duration) bool {
	if state.LastNotificationAt.IsZero() {
		return true
	}
	return g.clock.Now().Sub(state.LastNotificationAt) >= cooldown
}
