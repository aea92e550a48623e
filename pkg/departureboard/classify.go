package departureboard

import (
	"sort"
	"strings"
	"time"

	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/timeline"
)

type Classification struct {
	All       []ctdf.Entry
	Notes     []ctdf.Entry
	Scheduled []ctdf.Entry
	Future    []ctdf.Entry

	// CurrentTrain is always picked from the local entries, whatever feeds the
	// display list
	CurrentTrain *ctdf.Entry
	Remaining    []ctdf.Entry
}

func Classify(display []ctdf.Entry, local []ctdf.Entry, now time.Time) Classification {
	classification := Classification{
		All: display,
	}

	classification.Notes, classification.Scheduled = partition(display, now)
	classification.Future = futureEntries(classification.Scheduled, now)
	classification.Remaining = classification.Future

	_, localScheduled := partition(local, now)
	classification.CurrentTrain = SelectCurrent(futureEntries(localScheduled, now), now)

	return classification
}

// partition splits entries into notes (no planned time) and scheduled entries
// sorted by their best known start. Entries whose time cannot be resolved go
// to the end of the scheduled list.
func partition(entries []ctdf.Entry, now time.Time) ([]ctdf.Entry, []ctdf.Entry) {
	var notes []ctdf.Entry
	var scheduled []ctdf.Entry

	for _, entry := range entries {
		if strings.TrimSpace(entry.PlannedTime) == "" {
			notes = append(notes, entry)
		} else {
			scheduled = append(scheduled, entry)
		}
	}

	SortByStart(scheduled, now)

	return notes, scheduled
}

// SortByStart orders entries by their best known start, unresolvable last
func SortByStart(entries []ctdf.Entry, now time.Time) {
	starts := make([]time.Time, len(entries))
	resolved := make([]bool, len(entries))

	indexes := make([]int, len(entries))
	for i := range entries {
		indexes[i] = i
		starts[i], resolved[i] = timeline.EntryStart(&entries[i], now)
	}

	sort.SliceStable(indexes, func(a, b int) bool {
		ia, ib := indexes[a], indexes[b]
		if resolved[ia] != resolved[ib] {
			return resolved[ia]
		}
		return starts[ia].Before(starts[ib])
	})

	sorted := make([]ctdf.Entry, len(entries))
	for i, index := range indexes {
		sorted[i] = entries[index]
	}
	copy(entries, sorted)
}

// futureEntries keeps canceled entries that start after now and other entries
// that either start after now or are occupying right now
func futureEntries(scheduled []ctdf.Entry, now time.Time) []ctdf.Entry {
	var future []ctdf.Entry

	for i := range scheduled {
		entry := &scheduled[i]

		start, ok := timeline.EntryStart(entry, now)
		if !ok {
			continue
		}

		if entry.Canceled {
			if start.After(now) {
				future = append(future, *entry)
			}
			continue
		}

		if timeline.IsCurrentlyOccupying(entry, now) || start.After(now) {
			future = append(future, *entry)
		}
	}

	return future
}

// SelectCurrent picks the latest started occupying entry, or failing that the
// earliest upcoming one. future must be sorted by start.
func SelectCurrent(future []ctdf.Entry, now time.Time) *ctdf.Entry {
	if len(future) == 0 {
		return nil
	}

	var current *ctdf.Entry
	var currentStart time.Time

	for i := range future {
		if !timeline.IsCurrentlyOccupying(&future[i], now) {
			continue
		}

		start, _ := timeline.EntryStart(&future[i], now)
		if current == nil || !start.Before(currentStart) {
			current = &future[i]
			currentStart = start
		}
	}

	if current == nil {
		current = &future[0]
	}

	selected := *current
	return &selected
}
