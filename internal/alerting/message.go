package alerting

import (
	"fmt"
	"strings"
	"time"

	"storm-radar/internal/alert"
)

// TelegramMaxMessageLen is the transport's hard payload limit, in characters.
const TelegramMaxMessageLen = 4096

const maxReasonLines = 6

var levelHeaders = map[alert.Level]string{
	alert.LevelCritical: "🚨🚨🚨 CRITICAL ALERT",
	alert.LevelHigh:     "🚨 HIGH ALERT",
	alert.LevelMedium:   "⚠️ MEDIUM ALERT",
	alert.LevelLow:      "ℹ️ LOW ALERT",
}

var categoryGlyphs = map[alert.Category]string{
	alert.CategoryBora:      "🌪️",
	alert.CategoryMarine:    "🌊",
	alert.CategoryLightning: "⚡",
	alert.CategoryThermal:   "🌡️",
}

// Formatter renders an assessment into a bounded Markdown payload.
type Formatter struct {
	location string
	maxLen   int
}

// NewFormatter builds a formatter for the target location. maxLen <= 0 falls
// back to the Telegram limit.
func NewFormatter(location string, maxLen int) *Formatter {
	if maxLen <= 0 {
		maxLen = TelegramMaxMessageLen
	}
	return &Formatter{location: location, maxLen: maxLen}
}

// Format renders the alert message. At most six reasons are included, each
// stripped of characters that would break Telegram Markdown, and the whole
// payload is truncated to the transport limit with a marker if needed.
func (f *Formatter) Format(a alert.Assessment, now time.Time) string {
	builder := strings.Builder{}

	header, ok := levelHeaders[a.Level]
	if !ok {
		header = "📊 ALERT"
	}

	builder.WriteString(fmt.Sprintf("*%s - %s*\n", header, f.location))
	builder.WriteString(fmt.Sprintf("*Risk Score:* %s%%\n", alert.Fixed(a.Score, 0)))
	builder.WriteString(fmt.Sprintf("*Estimated Arrival:* %s\n\n", a.ETA))

	if len(a.Reasons) > 0 {
		builder.WriteString("*⚡ Active Conditions:*\n")
		reasons := a.Reasons
		if len(reasons) > maxReasonLines {
			reasons = reasons[:maxReasonLines]
		}
		for _, reason := range reasons {
			glyph := categoryGlyphs[reason.Category]
			builder.WriteString(fmt.Sprintf("• %s %s: %s\n", glyph, reason.Category, StripMarkdown(reason.Text)))
		}
	}

	if a.Level == alert.LevelCritical {
		builder.WriteString("\n*🚨 IMMEDIATE ACTION REQUIRED:*\n")
		builder.WriteString("• Secure all outdoor items NOW\n")
		builder.WriteString("• Avoid coastal areas\n")
		builder.WriteString("• Check mooring lines\n")
	}

	builder.WriteString(fmt.Sprintf("\n*🕐 Time:* %s", now.Format("15:04 - 02/01/2006")))

	return truncate(builder.String(), f.maxLen)
}

// StripMarkdown removes the characters Telegram's Markdown parser chokes on.
func StripMarkdown(text string) string {
	replacer := strings.NewReplacer("*", "", "_", "", "`", "", "[", "", "]", "", "(", "", ")", "")
	return replacer.Replace(text)
}

func truncate(message string, maxLen int) string {
	runes := []rune(message)
	if len(runes) <= maxLen {
		return message
	}
	return string(runes[:maxLen-3]) + "..."
}
