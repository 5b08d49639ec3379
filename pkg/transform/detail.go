// pkg/transform/detail.go
package transform

import (
	"strings"
	"time"
)

// DefaultCutoffHour is the local hour after which the second preview is shown
const DefaultCutoffHour = 12

// SelectDetailMessage picks the preview to display for an activity. Before
// the cutoff on the activity date the first preview is shown; from the
// cutoff onward the second preview is shown, falling back to the first one
// when the second is blank. now is always supplied by the caller.
func SelectDetailMessage(activityDate time.Time, preview1, preview2 string, now time.Time, loc *time.Location, cutoffHour int) string {
	if loc == nil {
		loc = activityDate.Location()
	}
	cutoff := time.Date(activityDate.Year(), activityDate.Month(), activityDate.Day(), cutoffHour, 0, 0, 0, loc)

	if now.Before(cutoff) {
		return preview1
	}
	if strings.TrimSpace(preview2) != "" {
		return preview2
	}
	return preview1
}
