// pkg/converter/mapping.go
package converter

import (
	"regexp"
	"strconv"
	"time"
)

// Patterns for clock extraction
var (
	clockPattern = regexp.MustCompile(`^(\d{1,3}):(\d{2})(?::(\d{2})(?:\.\d+)?)?$`)
)

// Date and date-time layouts seen in the exports, most specific first
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02/01/06",
}

// DetectTimeFormat analyzes a value to determine its timestamp layout
func DetectTimeFormat(value string) string {
	for _, format := range timestampLayouts {
		_, err := time.Parse(format, value)
		if err == nil {
			return format
		}
	}

	return ""
}

// hasClock reports whether a detected layout carries a time of day
func hasClock(layout string) bool {
	switch layout {
	case "2006-01-02", "02/01/2006", "2/1/2006", "02-01-2006", "02/01/06":
		return false
	}
	return layout != ""
}

// parseClockText parses H:MM or H:MM:SS. Hours may exceed 23 so the same
// routine serves durations.
func parseClockText(s string) (time.Duration, bool) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if mm > 59 {
		return 0, false
	}
	sec := 0
	if m[3] != "" {
		sec, _ = strconv.Atoi(m[3])
		if sec > 59 {
			return 0, false
		}
	}

	return time.Duration(h)*time.Hour + time.Duration(mm)*time.Minute + time.Duration(sec)*time.Second, true
}
