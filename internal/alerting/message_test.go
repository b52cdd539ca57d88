package alerting

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storm-radar/internal/alert"
)

func testAssessment(level alert.Level, reasons int) alert.Assessment {
	a := alert.Assessment{Score: 72, Level: level, ETA: "45-90 minutes"}
	for i := 0; i < reasons; i++ {
		a.Reasons = append(a.Reasons, alert.Reason{
			Category: alert.CategoryMarine,
			Text:     fmt.Sprintf("condition %d", i),
		})
	}
	return a
}

func TestFormatCapsReasonLines(t *testing.T) {
	f := NewFormatter("Falconara Marittima", 0)

	message := f.Format(testAssessment(alert.LevelHigh, 10), time.Now())

	assert.Equal(t, maxReasonLines, strings.Count(message, "• "))
	assert.NotContains(t, message, "condition 6")
}

func TestFormatCriticalAppendsAdvisory(t *testing.T) {
	f := NewFormatter("Falconara Marittima", 0)

	critical := f.Format(testAssessment(alert.LevelCritical, 1), time.Now())
	assert.Contains(t, critical, "IMMEDIATE ACTION REQUIRED")
	assert.Contains(t, critical, "Check mooring lines")

	high := f.Format(testAssessment(alert.LevelHigh, 1), time.Now())
	assert.NotContains(t, high, "IMMEDIATE ACTION REQUIRED")
}

func TestFormatSanitizesReasonText(t *testing.T) {
	f := NewFormatter("Falconara Marittima", 0)

	a := alert.Assessment{
		Score: 30,
		Level: alert.LevelLow,
		ETA:   "2-3 hours",
		Reasons: []alert.Reason{
			{Category: alert.CategoryThermal, Text: "gradient *8.5* `hot_spell` [inland](coastal)"},
		},
	}

	message := f.Format(a, time.Now())

	require.Contains(t, message, "gradient 8.5 hot")
	assert.NotContains(t, message, "`")
	assert.NotContains(t, message, "[inland]")
}

func TestFormatRendersHeaderScoreAndETA(t *testing.T) {
	f := NewFormatter("Falconara Marittima", 0)

	now := time.Date(2026, 2, 7, 16, 30, 0, 0, time.UTC)
	message := f.Format(testAssessment(alert.LevelMedium, 1), now)

	assert.Contains(t, message, "MEDIUM ALERT - Falconara Marittima")
	assert.Contains(t, message, "*Risk Score:* 72%")
	assert.Contains(t, message, "*Estimated Arrival:* 45-90 minutes")
	assert.Contains(t, message, "16:30 - 07/02/2026")
}

func TestFormatTruncatesToTransportLimit(t *testing.T) {
	f := NewFormatter("Falconara Marittima", 200)

	a := testAssessment(alert.LevelHigh, 6)
	for i := range a.Reasons {
		a.Reasons[i].Text = strings.Repeat("x", 100)
	}

	message := f.Format(a, time.Now())

	assert.LessOrEqual(t, len([]rune(message)), 200)
	assert.True(t, strings.HasSuffix(message, "..."))
}
