package pipeline

import (
	"strings"
	"time"
)

// Layouts accepted for the stored schedule, tried in order. Airtable date
// fields come back either as a bare date or as an ISO 8601 datetime,
// depending on the field configuration.
var naiveDatetimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

const (
	combinedLayout   = "2006-01-02 15:04"
	defaultTimeOfDay = "10:00"
)

// ResolveSchedule converts the stored schedule fields into a Unix timestamp
// for the platform's scheduled_publish_time parameter. It returns 0 when
// the post should be published immediately: no schedule stored, the stored
// value does not parse, or the target is less than minLead in the future.
//
// A Z- or offset-suffixed datetime is parsed as an absolute instant and
// converted to loc for validation; a naive datetime is interpreted as wall
// clock time in loc directly.
func ResolveSchedule(dateStr, timeStr string, now time.Time, loc *time.Location, minLead time.Duration) int64 {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return 0
	}

	target, ok := parseSchedule(dateStr, timeStr, loc)
	if !ok {
		return 0
	}

	// Strictly less than the minimum lead discards the schedule; a target
	// at exactly now+minLead is still accepted.
	if target.Before(now.Add(minLead)) {
		return 0
	}

	return target.Unix()
}

func parseSchedule(dateStr, timeStr string, loc *time.Location) (time.Time, bool) {
	if strings.Contains(dateStr, "T") {
		if t, err := time.Parse(time.RFC3339, dateStr); err == nil {
			return t.In(loc), true
		}
		for _, layout := range naiveDatetimeLayouts {
			if t, err := time.ParseInLocation(layout, dateStr, loc); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}

	timeStr = strings.TrimSpace(timeStr)
	if timeStr == "" {
		timeStr = defaultTimeOfDay
	}
	t, err := time.ParseInLocation(combinedLayout, dateStr+" "+timeStr, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
