package departureboard

import (
	"sort"
	"strings"
	"time"

	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/timeline"
	"github.com/travigo/departureboard/pkg/util"
)

const DefaultExtraServicePrefix = "EXTRA:"

type AnnouncementType string

const (
	AnnouncementTypeNote                AnnouncementType = "note"
	AnnouncementTypeCancelled           AnnouncementType = "cancelled"
	AnnouncementTypeDelayed             AnnouncementType = "delayed"
	AnnouncementTypeExtraService        AnnouncementType = "extra-service"
	AnnouncementTypeSubstitutionService AnnouncementType = "substitution-service"
	AnnouncementTypeConflict            AnnouncementType = "conflict"
)

type Announcement struct {
	Type  AnnouncementType `json:"type" groups:"basic,full"`
	Entry ctdf.Entry       `json:"entry" groups:"basic,full"`

	DelayMinutes int `json:"delayMinutes,omitempty" groups:"basic,full"`

	// Substitution: the canceled services this entry covers for
	Replaces []timeline.Overlap `json:"replaces,omitempty" groups:"basic,full"`

	// Conflict: the other entry of the pair
	ConflictsWith *ctdf.Entry `json:"conflictsWith,omitempty" groups:"basic,full"`

	Relationship timeline.Relationship `json:"relationship,omitempty" groups:"basic,full"`
}

type Options struct {
	ExtraServicePrefix string
}

func (o Options) prefix() string {
	if o.ExtraServicePrefix == "" {
		return DefaultExtraServicePrefix
	}
	return o.ExtraServicePrefix
}

func IsExtraService(destination string, options Options) bool {
	return strings.HasPrefix(strings.TrimSpace(destination), options.prefix())
}

// DisplayDestination strips the extra service marker
func DisplayDestination(destination string, options Options) string {
	trimmed := strings.TrimSpace(destination)
	return strings.TrimSpace(strings.TrimPrefix(trimmed, options.prefix()))
}

func isToday(entry *ctdf.Entry, now time.Time) bool {
	start, ok := timeline.EntryStart(entry, now)
	if !ok {
		return false
	}

	return util.SameDay(start, now)
}

// CompileAnnouncements derives every announcement from a classification. An
// entry can show up under several types.
func CompileAnnouncements(classification Classification, now time.Time, options Options) []Announcement {
	var announcements []Announcement

	for _, note := range classification.Notes {
		announcements = append(announcements, Announcement{
			Type:  AnnouncementTypeNote,
			Entry: note,
		})
	}

	var today []ctdf.Entry
	var todayCanceled []ctdf.Entry
	var allActive []ctdf.Entry

	for i := range classification.Future {
		entry := classification.Future[i]

		if !entry.Canceled {
			allActive = append(allActive, entry)
		}

		if !isToday(&entry, now) {
			continue
		}

		today = append(today, entry)
		if entry.Canceled {
			todayCanceled = append(todayCanceled, entry)
		}
	}

	for i := range today {
		entry := &today[i]

		if entry.Canceled {
			announcements = append(announcements, Announcement{
				Type:  AnnouncementTypeCancelled,
				Entry: *entry,
			})
			continue
		}

		if timeline.HasActualTime(entry) && entry.ActualTime != entry.PlannedTime {
			if delay := timeline.EntryDelay(entry, now); delay > 0 {
				announcements = append(announcements, Announcement{
					Type:         AnnouncementTypeDelayed,
					Entry:        *entry,
					DelayMinutes: delay,
				})
			}
		}

		if IsExtraService(entry.Destination, options) {
			announcements = append(announcements, Announcement{
				Type:  AnnouncementTypeExtraService,
				Entry: *entry,
			})
		}

		if replaces := timeline.FindOverlapping(entry, todayCanceled, now); len(replaces) > 0 {
			announcements = append(announcements, Announcement{
				Type:         AnnouncementTypeSubstitutionService,
				Entry:        *entry,
				Replaces:     replaces,
				Relationship: replaces[0].Relationship,
			})
		}
	}

	announcements = append(announcements, conflicts(allActive, now)...)

	SortAnnouncements(announcements, now)

	return announcements
}

// conflicts pairs every non canceled entry with the later entries it overlaps.
// The earlier processed entry of a pair is the primary one.
func conflicts(active []ctdf.Entry, now time.Time) []Announcement {
	var announcements []Announcement

	spans := make([]timeline.Interval, len(active))
	valid := make([]bool, len(active))
	for i := range active {
		spans[i], valid[i] = timeline.Span(&active[i], now)
	}

	for i := range active {
		if !valid[i] {
			continue
		}

		for j := i + 1; j < len(active); j++ {
			if !valid[j] || !timeline.Overlaps(spans[i], spans[j]) {
				continue
			}

			other := active[j]
			announcements = append(announcements, Announcement{
				Type:          AnnouncementTypeConflict,
				Entry:         active[i],
				ConflictsWith: &other,
				Relationship:  timeline.RelateEither(spans[i], spans[j]),
			})
		}
	}

	return announcements
}

// SortAnnouncements puts untimed announcements first in their original order,
// then everything else by start.
func SortAnnouncements(announcements []Announcement, now time.Time) {
	type key struct {
		start    time.Time
		resolved bool
	}

	keys := make([]key, len(announcements))
	for i := range announcements {
		keys[i].start, keys[i].resolved = timeline.EntryStart(&announcements[i].Entry, now)
	}

	indexes := make([]int, len(announcements))
	for i := range indexes {
		indexes[i] = i
	}

	sort.SliceStable(indexes, func(a, b int) bool {
		ka, kb := keys[indexes[a]], keys[indexes[b]]
		if ka.resolved != kb.resolved {
			return !ka.resolved
		}
		return ka.start.Before(kb.start)
	})

	sorted := make([]Announcement, len(announcements))
	for i, index := range indexes {
		sorted[i] = announcements[index]
	}
	copy(announcements, sorted)
}
