package schedule

import (
	"time"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	iso8601 "github.com/senseyeio/duration"
	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/timeline"
	"github.com/travigo/departureboard/pkg/util"
)

const DefaultWindowDays = 7

var nextDayDuration, _ = iso8601.ParseISO8601("P1D")

// NormalizedSet is the output of a normalisation pass. Local holds every local
// entry with a concrete date, Display is what the list surfaces show.
type NormalizedSet struct {
	Local    []ctdf.Entry
	External []ctdf.Entry
	Display  []ctdf.Entry

	ExternalActive bool
}

// Normalize expands recurring entries over windowDays days starting with the
// day of now, appends all one-off entries and picks the display list. When an
// external feed is active the display list is made up of feed entries only.
func Normalize(document Document, external []ctdf.Entry, externalActive bool, now time.Time, windowDays int) NormalizedSet {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	recurring, oneOff := document.Split()

	set := NormalizedSet{
		Local:          []ctdf.Entry{},
		External:       []ctdf.Entry{},
		ExternalActive: externalActive,
	}

	day := util.StartOfDay(now)
	for i := 0; i < windowDays; i++ {
		for _, entry := range recurring {
			weekday, ok := ctdf.ParseWeekday(entry.Weekday)
			if !ok || weekday != day.Weekday() {
				continue
			}

			set.Local = append(set.Local, instantiate(entry, day))
		}

		day = util.StartOfDay(nextDayDuration.Shift(day))
	}

	for _, entry := range oneOff {
		set.Local = append(set.Local, canonical(entry, ctdf.EntrySourceLocal))
	}

	for _, entry := range external {
		set.External = append(set.External, canonical(entry, ctdf.EntrySourceExternalFeed))
	}

	if externalActive {
		set.Display = set.External
	} else {
		set.Display = set.Local
	}

	return set
}

// instantiate creates the dated instance of a recurring entry for day. The
// instance keeps the id of the recurring entry.
func instantiate(entry ctdf.Entry, day time.Time) ctdf.Entry {
	var instance ctdf.Entry
	if err := copier.CopyWithOption(&instance, &entry, copier.Option{DeepCopy: true}); err != nil {
		log.Error().Err(err).Str("id", entry.ID).Msg("Failed to copy recurring entry")
		instance = entry
	}

	instance.Date = day.Format(timeline.DateLayout)
	instance.Weekday = ""

	return canonical(instance, ctdf.EntrySourceLocal)
}

func canonical(entry ctdf.Entry, source ctdf.EntrySource) ctdf.Entry {
	entry.Source = source

	if len(entry.Stops) == 0 {
		entry.Stops = nil
	} else {
		entry.Stops = append([]string(nil), entry.Stops...)
	}

	return entry
}
