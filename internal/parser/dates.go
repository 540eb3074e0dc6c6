package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order against a normalised date-time string.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"Jan 2 2006 15:04:05",
	"Jan 2 2006 15:04",
	"2 Jan 2006 15:04:05",
	"2 Jan 2006 15:04",
	time.RFC3339,
}

// parseDateTime reads a locale-formatted date-time such as
// "15/01/2024, 14:30" or "2024-01-15, 14:30:00". Zone-less layouts are
// interpreted in loc.
func parseDateTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.ReplaceAll(s, ", ", " ")
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var (
	clockDurationRe = regexp.MustCompile(`^(\d+):([0-5]?\d)(?::\d{2})?h?$`)
	unitDurationRe  = regexp.MustCompile(`^(?:(\d+)[ \t]*h)?[ \t]*(?:(\d+)[ \t]*m(?:in)?)?$`)
)

// parseDuration reads "1:38h", "01:38:00", "2h 15m", "2h" or "45min" as
// minutes.
func parseDuration(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if m := clockDurationRe.FindStringSubmatch(s); m != nil {
		h, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		mins, _ := strconv.Atoi(m[2])
		return h*60 + mins, true
	}
	m := unitDurationRe.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, false
	}
	var h, mins int
	var err error
	if m[1] != "" {
		if h, err = strconv.Atoi(m[1]); err != nil {
			return 0, false
		}
	}
	if m[2] != "" {
		if mins, err = strconv.Atoi(m[2]); err != nil {
			return 0, false
		}
	}
	return h*60 + mins, true
}
