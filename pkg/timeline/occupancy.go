package timeline

import (
	"time"

	"github.com/travigo/departureboard/pkg/ctdf"
)

// Interval is the half-open range [Start, End)
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) IsValid() bool {
	return i.End.After(i.Start)
}

func (i Interval) Contains(instant time.Time) bool {
	return !instant.Before(i.Start) && instant.Before(i.End)
}

func (i Interval) Within(outer Interval) bool {
	return !i.Start.Before(outer.Start) && !i.End.After(outer.End)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Span is the occupancy interval of an entry regardless of cancellation.
// Entries without a positive duration only have a point in time and no span.
func Span(entry *ctdf.Entry, now time.Time) (Interval, bool) {
	if entry.DurationMinutes <= 0 {
		return Interval{}, false
	}

	start, ok := EntryStart(entry, now)
	if !ok {
		return Interval{}, false
	}

	return Interval{
		Start: start,
		End:   start.Add(time.Duration(entry.DurationMinutes) * time.Minute),
	}, true
}

func OccupancyEnd(entry *ctdf.Entry, now time.Time) (time.Time, bool) {
	if entry.Canceled {
		return time.Time{}, false
	}

	span, ok := Span(entry, now)
	if !ok {
		return time.Time{}, false
	}

	return span.End, true
}

// IsCurrentlyOccupying needs a confirmed actual time. An entry that only has a
// planned time is upcoming even while inside its nominal window.
func IsCurrentlyOccupying(entry *ctdf.Entry, now time.Time) bool {
	if !HasActualTime(entry) || entry.Canceled {
		return false
	}

	span, ok := Span(entry, now)
	if !ok {
		return false
	}

	return span.Contains(now)
}
