package report

import (
	"fmt"
	"strconv"
	"strings"
)

// SecondsToHMS formats a duration in seconds as H:MM:SS. Fractional seconds
// keep up to three digits, with trailing zeros trimmed.
func SecondsToHMS(seconds float64) string {
	whole := int64(seconds)
	hours := whole / 3600
	minutes := (whole % 3600) / 60
	secs := seconds - float64(hours*3600+minutes*60)

	secsText := fmt.Sprintf("%06.3f", secs)
	secsText = strings.TrimRight(secsText, "0")
	secsText = strings.TrimRight(secsText, ".")
	return fmt.Sprintf("%d:%02d:%s", hours, minutes, secsText)
}

// formatSeconds prints a seconds value without a trailing ".0".
func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

// withDelta appends a labeled duration, in both raw seconds and H:MM:SS, to
// some label text.
func withDelta(text string, seconds float64, label string) string {
	return fmt.Sprintf("%s - %s: %ss / %s", text, label, formatSeconds(seconds), SecondsToHMS(seconds))
}
