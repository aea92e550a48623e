package departureboard

import (
	"math"
	"time"

	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/schedule"
	"github.com/travigo/departureboard/pkg/timeline"
)

// BoardEntry is the read-only projection of an entry shared by every surface
type BoardEntry struct {
	ID           string            `json:"id" groups:"basic,full"`
	LineID       string            `json:"lineId" groups:"basic,full"`
	LineCategory ctdf.LineCategory `json:"lineCategory" groups:"basic,full"`
	Destination  string            `json:"destination" groups:"basic,full"`
	ExtraService bool              `json:"extraService" groups:"basic,full"`

	PlannedTime  string `json:"plannedTime,omitempty" groups:"basic,full"`
	ActualTime   string `json:"actualTime,omitempty" groups:"basic,full"`
	DelayMinutes int    `json:"delayMinutes" groups:"basic,full"`
	Date         string `json:"date,omitempty" groups:"basic,full"`

	Start           *time.Time `json:"start,omitempty" groups:"full"`
	End             *time.Time `json:"end,omitempty" groups:"full"`
	DurationMinutes int        `json:"durationMinutes,omitempty" groups:"full"`
	Occupying       bool       `json:"occupying" groups:"basic,full"`

	Canceled bool             `json:"canceled" groups:"basic,full"`
	Stops    []string         `json:"stops,omitempty" groups:"full"`
	Source   ctdf.EntrySource `json:"source" groups:"basic,full"`
}

type TimelineEntry struct {
	Entry BoardEntry `json:"entry" groups:"basic,full"`
	Level int        `json:"level" groups:"basic,full"`
}

type CountdownState string

const (
	CountdownStateOccupying CountdownState = "occupying"
	CountdownStateUpcoming  CountdownState = "upcoming"
)

// Countdown drives the headline: minutes until the current train starts, or
// until it frees up again while occupying
type Countdown struct {
	State   CountdownState `json:"state" groups:"basic,full"`
	Minutes int            `json:"minutes" groups:"basic,full"`
	Until   time.Time      `json:"until" groups:"basic,full"`
}

type Board struct {
	GeneratedAt    time.Time  `json:"generatedAt" groups:"basic,full"`
	Station        *ctdf.Stop `json:"station,omitempty" groups:"basic,full"`
	ExternalActive bool       `json:"externalActive" groups:"basic,full"`

	CurrentTrain *BoardEntry `json:"currentTrain" groups:"basic,full"`
	Countdown    *Countdown  `json:"countdown" groups:"basic,full"`

	List     []BoardEntry    `json:"list" groups:"basic,full"`
	Notes    []BoardEntry    `json:"notes" groups:"basic,full"`
	Timeline []TimelineEntry `json:"timeline" groups:"full"`

	Announcements Page `json:"announcements" groups:"basic,full"`
}

func NewBoardEntry(entry ctdf.Entry, now time.Time, options Options) BoardEntry {
	boardEntry := BoardEntry{
		ID:              entry.ID,
		LineID:          entry.LineID,
		LineCategory:    ctdf.GetLineCategory(entry.LineID),
		Destination:     DisplayDestination(entry.Destination, options),
		ExtraService:    IsExtraService(entry.Destination, options),
		PlannedTime:     entry.PlannedTime,
		ActualTime:      entry.ActualTime,
		DelayMinutes:    timeline.EntryDelay(&entry, now),
		Date:            entry.Date,
		DurationMinutes: entry.DurationMinutes,
		Occupying:       timeline.IsCurrentlyOccupying(&entry, now),
		Canceled:        entry.Canceled,
		Stops:           entry.Stops,
		Source:          entry.Source,
	}

	if start, ok := timeline.EntryStart(&entry, now); ok {
		boardEntry.Start = &start
	}
	if end, ok := timeline.OccupancyEnd(&entry, now); ok {
		boardEntry.End = &end
	}

	return boardEntry
}

func NewCountdown(entry *ctdf.Entry, now time.Time) *Countdown {
	if entry == nil {
		return nil
	}

	if timeline.IsCurrentlyOccupying(entry, now) {
		end, _ := timeline.OccupancyEnd(entry, now)
		return &Countdown{
			State:   CountdownStateOccupying,
			Minutes: minutesUntil(end, now),
			Until:   end,
		}
	}

	start, ok := timeline.EntryStart(entry, now)
	if !ok {
		return nil
	}

	return &Countdown{
		State:   CountdownStateUpcoming,
		Minutes: minutesUntil(start, now),
		Until:   start,
	}
}

func minutesUntil(instant time.Time, now time.Time) int {
	minutes := int(math.Ceil(instant.Sub(now).Minutes()))
	if minutes < 0 {
		return 0
	}
	return minutes
}

// Build runs classification, overlap levelling and the announcement compiler
// over a normalised set. Every surface reads from the returned Board.
func Build(set schedule.NormalizedSet, station *ctdf.Stop, now time.Time, carousel *Carousel, options Options) Board {
	classification := Classify(set.Display, set.Local, now)

	board := Board{
		GeneratedAt:    now,
		Station:        station,
		ExternalActive: set.ExternalActive,
		List:           []BoardEntry{},
		Notes:          []BoardEntry{},
		Timeline:       []TimelineEntry{},
	}

	if classification.CurrentTrain != nil {
		current := NewBoardEntry(*classification.CurrentTrain, now, options)
		board.CurrentTrain = &current
		board.Countdown = NewCountdown(classification.CurrentTrain, now)
	}

	for _, entry := range classification.Remaining {
		board.List = append(board.List, NewBoardEntry(entry, now, options))
	}

	for _, entry := range classification.Notes {
		board.Notes = append(board.Notes, NewBoardEntry(entry, now, options))
	}

	for _, leveled := range timeline.DetectOverlaps(classification.Future, now) {
		board.Timeline = append(board.Timeline, TimelineEntry{
			Entry: NewBoardEntry(leveled.Entry, now, options),
			Level: leveled.Level,
		})
	}

	if carousel == nil {
		carousel = &Carousel{}
	}
	board.Announcements = carousel.Compile(CompileAnnouncements(classification, now, options))

	return board
}
