package timetables

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/dataaggregator/query"
	"github.com/travigo/departureboard/pkg/timeline"
	"golang.org/x/exp/slices"
)

const timestampLayout = "0601021504"

// DeparturesQuery merges the hourly plans from the current hour onwards with
// the station's change set. Unknown hours (404) are skipped.
func (s *Source) DeparturesQuery(ctx context.Context, q query.Departures) ([]ctdf.Entry, error) {
	if q.Stop == nil || q.Stop.Identifier == "" {
		return []ctdf.Entry{}, nil
	}

	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(s.Location)

	stops := map[string]stop{}
	var order []string

	for hour := 0; hour < s.LookaheadHours; hour++ {
		slot := now.Add(time.Duration(hour) * time.Hour)
		path := fmt.Sprintf("/plan/%s/%s/%s", escapePath(q.Stop.Identifier), slot.Format("060102"), slot.Format("15"))

		body, err := s.get(ctx, path, true)
		if errors.Is(err, errNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		var plan timetable
		if err := decodeXML(strings.NewReader(body), &plan); err != nil {
			return nil, fmt.Errorf("decoding plan %s: %w", path, err)
		}

		for _, planned := range plan.Stops {
			if _, exists := stops[planned.ID]; !exists {
				order = append(order, planned.ID)
			}
			stops[planned.ID] = planned
		}
	}

	changesPath := fmt.Sprintf("/fchg/%s", escapePath(q.Stop.Identifier))
	body, err := s.get(ctx, changesPath, false)
	if err != nil && !errors.Is(err, errNotFound) {
		return nil, err
	}
	if err == nil {
		var changes timetable
		if err := decodeXML(strings.NewReader(body), &changes); err != nil {
			log.Warn().Err(err).Str("stop", q.Stop.Identifier).Msg("Failed to decode timetable changes")
		} else {
			windowStart := now.Truncate(time.Hour)
			windowEnd := windowStart.Add(time.Duration(s.LookaheadHours) * time.Hour)

			for _, changed := range changes.Stops {
				if planned, exists := stops[changed.ID]; exists {
					stops[changed.ID] = mergeChanges(planned, changed)
				} else if s.isAddedTrip(changed, windowStart, windowEnd) {
					order = append(order, changed.ID)
					stops[changed.ID] = changed
				}
			}
		}
	}

	entries := []ctdf.Entry{}
	for _, id := range order {
		entry, ok := s.toEntry(stops[id], q.Stop)
		if ok {
			entries = append(entries, entry)
		}
	}

	slices.SortStableFunc(entries, func(a, b ctdf.Entry) int {
		if a.Date != b.Date {
			return cmp.Compare(a.Date, b.Date)
		}
		return cmp.Compare(a.PlannedTime, b.PlannedTime)
	})

	return entries, nil
}

// isAddedTrip reports whether a change record describes a whole trip the plans
// do not know about (extra or replacement trains). Those carry their own
// planned time; plain delay records for unknown stops do not.
func (s *Source) isAddedTrip(changed stop, from time.Time, to time.Time) bool {
	if changed.TripLabel.Category == "" && changed.TripLabel.Number == "" {
		return false
	}

	event := changed.Departure
	if event == nil || event.PlannedTime == "" {
		event = changed.Arrival
	}
	if event == nil || event.PlannedTime == "" {
		return false
	}

	planned, err := time.ParseInLocation(timestampLayout, event.PlannedTime, s.Location)
	if err != nil {
		return false
	}

	return !planned.Before(from) && planned.Before(to)
}

func mergeChanges(planned stop, changed stop) stop {
	merge := func(p *stopEvent, c *stopEvent) *stopEvent {
		if p == nil || c == nil {
			return p
		}

		merged := *p
		if c.ChangedTime != "" {
			merged.ChangedTime = c.ChangedTime
		}
		if c.ChangedStatus != "" {
			merged.ChangedStatus = c.ChangedStatus
		}
		if c.ChangedPath != "" {
			merged.ChangedPath = c.ChangedPath
		}
		return &merged
	}

	planned.Arrival = merge(planned.Arrival, changed.Arrival)
	planned.Departure = merge(planned.Departure, changed.Departure)

	return planned
}

func (s *Source) toEntry(record stop, at *ctdf.Stop) (ctdf.Entry, bool) {
	event := record.Departure
	if event == nil {
		event = record.Arrival
	}
	if event == nil {
		return ctdf.Entry{}, false
	}

	planned, err := time.ParseInLocation(timestampLayout, event.PlannedTime, s.Location)
	if err != nil {
		return ctdf.Entry{}, false
	}

	entry := ctdf.Entry{
		ID:          record.ID,
		LineID:      lineLabel(record.TripLabel, event),
		PlannedTime: planned.Format(timeline.ClockLayout),
		Date:        planned.Format(timeline.DateLayout),
		Canceled:    event.isCancelled(),
		Source:      ctdf.EntrySourceExternalFeed,
		Stops:       []string{},
	}

	if event.ChangedTime != "" {
		if changed, err := time.ParseInLocation(timestampLayout, event.ChangedTime, s.Location); err == nil && !changed.Equal(planned) {
			entry.ActualTime = changed.Format(timeline.ClockLayout)
		}
	}

	path := event.path()
	if record.Departure != nil && len(path) > 0 {
		entry.Destination = path[len(path)-1]
		entry.Stops = append(entry.Stops, path[:len(path)-1]...)
	} else if record.Departure == nil {
		// terminates here
		entry.Destination = at.Name
		entry.Stops = append(entry.Stops, path...)
	}

	return entry, true
}

func lineLabel(label tripLabel, event *stopEvent) string {
	switch {
	case event.Line != "" && label.Category == "S":
		return "S" + event.Line
	case event.Line != "":
		return event.Line
	default:
		return strings.TrimSpace(label.Category + " " + label.Number)
	}
}
