// pkg/converter/temporal.go
package converter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/EricBinekS/StatusDiario/pkg/model"
)

const day = 24 * time.Hour

// Sentinel end clocks that flag a canceled activity
const (
	SentinelESP   = time.Hour
	SentinelBLOCO = time.Minute
)

// serialEpoch is day zero of spreadsheet serial dates (1900 date system)
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseClock extracts a time of day from a spreadsheet serial, a time value
// or clock text. Values that cannot be read yield false; it never panics.
func ParseClock(v any) (time.Duration, bool) {
	switch c := v.(type) {
	case nil:
		return 0, false
	case time.Time:
		return clockOf(c), true
	case time.Duration:
		if c < 0 {
			return 0, false
		}
		return c % day, true
	case string:
		s := strings.TrimSpace(c)
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return clockFromSerial(f)
		}
		if d, ok := parseClockText(s); ok {
			if d >= day {
				return 0, false
			}
			return d, true
		}
		if layout := DetectTimeFormat(s); hasClock(layout) {
			t, _ := time.Parse(layout, s)
			return clockOf(t), true
		}
		return 0, false
	default:
		f, err := convertToFloat(v)
		if err != nil {
			return 0, false
		}
		return clockFromSerial(f)
	}
}

// ParseSpan reads an elapsed duration such as the planned duration column.
// Serial values count whole days; text may exceed 24 hours.
func ParseSpan(v any) (time.Duration, bool) {
	switch c := v.(type) {
	case nil:
		return 0, false
	case time.Time:
		return clockOf(c), true
	case time.Duration:
		return c, c >= 0
	case string:
		s := strings.TrimSpace(c)
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return spanFromSerial(f)
		}
		return parseClockText(s)
	default:
		f, err := convertToFloat(v)
		if err != nil {
			return 0, false
		}
		return spanFromSerial(f)
	}
}

// ParseDate extracts a calendar date, returned at midnight in loc
func ParseDate(v any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}

	switch c := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		// A time-of-day value carries no calendar date
		if c.Year() <= 1 {
			return time.Time{}, false
		}
		return time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, loc), true
	case string:
		s := strings.TrimSpace(c)
		if s == "" {
			return time.Time{}, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return dateFromSerial(f, loc)
		}
		layout := DetectTimeFormat(s)
		if layout == "" {
			return time.Time{}, false
		}
		t, _ := time.Parse(layout, s)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
	default:
		f, err := convertToFloat(v)
		if err != nil {
			return time.Time{}, false
		}
		return dateFromSerial(f, loc)
	}
}

// Combine anchors a clock on a calendar date in loc
func Combine(date time.Time, clock time.Duration, loc *time.Location) time.Time {
	if loc == nil {
		loc = date.Location()
	}
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc).Add(clock)
}

// PlannedEnd is planned start plus planned duration; nil if either is absent
func PlannedEnd(start *time.Time, duration *time.Duration) *time.Time {
	if start == nil || duration == nil {
		return nil
	}
	end := start.Add(*duration)
	return &end
}

// ActualEnd anchors the end clock on the actual start's date. An end earlier
// than the start is assumed to have crossed midnight and moves to the next
// day. This is a heuristic: a data-entry error with end before start is
// indistinguishable. Without a start there is no actual end.
func ActualEnd(start *time.Time, endClock time.Duration, loc *time.Location) *time.Time {
	if start == nil {
		return nil
	}
	if loc == nil {
		loc = start.Location()
	}
	end := Combine(start.In(loc), endClock, loc)
	if end.Before(*start) {
		end = end.AddDate(0, 0, 1)
	}
	return &end
}

// DetectSentinel maps the sentinel end clocks to their override code
func DetectSentinel(endClock time.Duration) model.OverrideCode {
	switch endClock {
	case SentinelESP:
		return model.OverrideESP
	case SentinelBLOCO:
		return model.OverrideBLOCO
	default:
		return model.OverrideNone
	}
}

// FormatHHMM renders a duration as zero-padded hours and minutes; hours may exceed 24
func FormatHHMM(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	minutes := int64(d / time.Minute)
	return fmt.Sprintf("%s%02d:%02d", sign, minutes/60, minutes%60)
}

func clockOf(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}

func clockFromSerial(f float64) (time.Duration, bool) {
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	_, frac := math.Modf(f)
	secs := math.Round(frac * 86400)
	return (time.Duration(secs) * time.Second) % day, true
}

func spanFromSerial(f float64) (time.Duration, bool) {
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return time.Duration(math.Round(f*86400)) * time.Second, true
}

func dateFromSerial(f float64, loc *time.Location) (time.Time, bool) {
	if f < 1 || math.IsNaN(f) || math.IsInf(f, 0) || f > 2958465 {
		return time.Time{}, false
	}
	t := serialEpoch.AddDate(0, 0, int(math.Floor(f)))
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
}
