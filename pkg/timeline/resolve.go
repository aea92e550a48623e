package timeline

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/travigo/departureboard/pkg/ctdf"
)

const (
	ClockLayout = "15:04"
	DateLayout  = "2006-01-02"

	// RolloverThreshold is how far an undated clock time may sit from the
	// reference instant before it is moved onto the neighbouring day.
	RolloverThreshold = 12 * time.Hour
)

var clockRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ParseClock parses H:MM or HH:MM
func ParseClock(value string) (int, int, bool) {
	matches := clockRegex.FindStringSubmatch(strings.TrimSpace(value))
	if matches == nil {
		return 0, 0, false
	}

	hour, _ := strconv.Atoi(matches[1])
	minute, _ := strconv.Atoi(matches[2])

	if hour > 23 || minute > 59 {
		return 0, 0, false
	}

	return hour, minute, true
}

// ResolveInstant turns a clock time into an absolute instant. With an explicit
// date the clock time is placed on that date. Without one it is placed on the
// reference date and then moved to the previous or next day if that leaves it
// more than RolloverThreshold away from the reference.
func ResolveInstant(timeString string, referenceNow time.Time, explicitDate string) (time.Time, bool) {
	hour, minute, ok := ParseClock(timeString)
	if !ok {
		return time.Time{}, false
	}

	location := referenceNow.Location()

	if explicitDate != "" {
		if date, err := time.ParseInLocation(DateLayout, strings.TrimSpace(explicitDate), location); err == nil {
			return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, location), true
		}
	}

	year, month, day := referenceNow.Date()
	instant := time.Date(year, month, day, hour, minute, 0, 0, location)

	if referenceNow.Sub(instant) > RolloverThreshold {
		instant = time.Date(year, month, day+1, hour, minute, 0, 0, location)
	} else if instant.Sub(referenceNow) > RolloverThreshold {
		instant = time.Date(year, month, day-1, hour, minute, 0, 0, location)
	}

	return instant, true
}

// DelayMinutes is actual minus planned, rounded half up. Missing or unparsable
// times count as no delay.
func DelayMinutes(planned string, actual string, now time.Time, date string) int {
	plannedInstant, ok := ResolveInstant(planned, now, date)
	if !ok {
		return 0
	}

	// Anchoring on the planned instant keeps a delay across midnight small
	actualInstant, ok := ResolveInstant(actual, plannedInstant, "")
	if !ok {
		return 0
	}

	return int(math.Floor(actualInstant.Sub(plannedInstant).Minutes() + 0.5))
}

func HasActualTime(entry *ctdf.Entry) bool {
	_, _, ok := ParseClock(entry.ActualTime)
	return ok
}

// EntryStart is the best known start of an entry, the actual time when one is
// set and the planned time otherwise.
func EntryStart(entry *ctdf.Entry, now time.Time) (time.Time, bool) {
	planned, plannedOK := ResolveInstant(entry.PlannedTime, now, entry.Date)

	if HasActualTime(entry) {
		reference := now
		date := entry.Date
		if plannedOK {
			reference = planned
			date = ""
		}

		if actual, ok := ResolveInstant(entry.ActualTime, reference, date); ok {
			return actual, true
		}
	}

	return planned, plannedOK
}

func EntryDelay(entry *ctdf.Entry, now time.Time) int {
	return DelayMinutes(entry.PlannedTime, entry.ActualTime, now, entry.Date)
}
