// Package alert defines the vocabulary shared by the scoring engine and the
// notification layer: severity levels, tagged reasons, and the per-cycle
// assessment value.
package alert

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Level is the ordered severity of an assessment.
type Level int

const (
	LevelLow Level = iota + 1
	LevelMedium
	LevelHigh
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "LOW"
	case LevelMedium:
		return "MEDIUM"
	case LevelHigh:
		return "HIGH"
	case LevelCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel maps a case-insensitive level name to its ordinal.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return LevelLow, nil
	case "MEDIUM":
		return LevelMedium, nil
	case "HIGH":
		return LevelHigh, nil
	case "CRITICAL":
		return LevelCritical, nil
	default:
		return 0, fmt.Errorf("unknown alert level %q", s)
	}
}

// Category tags a reason with the detector that produced it. Downstream ETA
// and formatting logic matches on the tag, never on reason text.
type Category string

const (
	CategoryBora      Category = "BORA"
	CategoryMarine    Category = "MARINE"
	CategoryLightning Category = "LIGHTNING"
	CategoryThermal   Category = "THERMAL"
)

// Reason is one contributing condition. Stations lists the station or marine
// point names the condition was observed at, when applicable.
type Reason struct {
	Category Category
	Text     string
	Stations []string
}

// Assessment is the transient outcome of one scoring pass.
type Assessment struct {
	Score   float64
	Reasons []Reason
	Level   Level
	ETA     string
}

// HasCategory reports whether any reason carries the given tag.
func (a Assessment) HasCategory(c Category) bool {
	for _, r := range a.Reasons {
		if r.Category == c {
			return true
		}
	}
	return false
}

// Mentions reports whether any reason references one of the given names.
func (a Assessment) Mentions(names []string) bool {
	for _, r := range a.Reasons {
		for _, station := range r.Stations {
			for _, name := range names {
				if station == name {
					return true
				}
			}
		}
	}
	return false
}

// Fixed renders a float with a fixed number of decimal places.
func Fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}
