// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCompact formats a count with human-readable suffixes.
// e.g., 1234 -> "1.2K", 1234567 -> "1.2M", 1234567890 -> "1.2B"
func FormatCompact(n int64) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// FormatGold formats a gold amount the way players write it.
// e.g., 950 -> "950", 12500 -> "12.5k", 3400000 -> "3.40kk"
func FormatGold(n int64) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.2fkkk", float64(n)/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.2fkk", float64(n)/1_000_000)
	case abs >= 10_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return FormatNumber(n)
	}
}

// FormatMinutes formats a minute count as hours and minutes.
// e.g., 98 -> "1h 38m", 45 -> "45m"
func FormatMinutes(mins int64) string {
	if mins <= 0 {
		return "0m"
	}
	hours := mins / 60
	rest := mins % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %02dm", hours, rest)
	}
	return fmt.Sprintf("%dm", rest)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatDelta formats a gold delta with an explicit sign.
func FormatDelta(current, previous int64) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatGold(delta)
	}
	return "-" + FormatGold(-delta)
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}
