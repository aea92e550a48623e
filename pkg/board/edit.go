package board

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/changelog"
	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/editsession"
	"github.com/travigo/departureboard/pkg/schedule"
	"github.com/travigo/departureboard/pkg/timeline"
)

var ErrInvalidValue = errors.New("invalid value")
var ErrUnknownField = errors.New("unknown field")
var ErrReadOnlyEntry = errors.New("external feed entries cannot be edited")

// Editable fields by their JSON name
var editableFields = map[string]func(entry *ctdf.Entry, value string) error{
	"lineId": func(entry *ctdf.Entry, value string) error {
		entry.LineID = strings.TrimSpace(value)
		return nil
	},
	"destination": func(entry *ctdf.Entry, value string) error {
		entry.Destination = value
		return nil
	},
	// an entry without a planned time is a note
	"plannedTime": func(entry *ctdf.Entry, value string) error {
		return setClock(&entry.PlannedTime, value, true)
	},
	"actualTime": func(entry *ctdf.Entry, value string) error {
		return setClock(&entry.ActualTime, value, true)
	},
	"durationMinutes": func(entry *ctdf.Entry, value string) error {
		value = strings.TrimSpace(value)
		if value == "" {
			entry.DurationMinutes = 0
			return nil
		}

		minutes, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: duration must be a whole number of minutes", ErrInvalidValue)
		}
		entry.DurationMinutes = max(minutes, 0)
		return nil
	},
	"date": func(entry *ctdf.Entry, value string) error {
		value = strings.TrimSpace(value)
		if _, err := time.Parse(timeline.DateLayout, value); err != nil {
			return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidValue)
		}
		entry.Date = value
		entry.Weekday = ""
		return nil
	},
	"weekday": func(entry *ctdf.Entry, value string) error {
		value = strings.ToLower(strings.TrimSpace(value))
		if _, ok := ctdf.ParseWeekday(value); !ok {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidValue, value)
		}
		entry.Weekday = value
		entry.Date = ""
		return nil
	},
	"canceled": func(entry *ctdf.Entry, value string) error {
		canceled, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: canceled must be true or false", ErrInvalidValue)
		}
		entry.Canceled = canceled
		return nil
	},
	"stops": func(entry *ctdf.Entry, value string) error {
		entry.Stops = []string{}
		for _, line := range strings.Split(strings.ReplaceAll(value, "\r\n", "\n"), "\n") {
			if stop := strings.TrimSpace(line); stop != "" {
				entry.Stops = append(entry.Stops, stop)
			}
		}
		return nil
	},
}

func setClock(target *string, value string, optional bool) error {
	value = strings.TrimSpace(value)
	if value == "" && optional {
		*target = ""
		return nil
	}

	hour, minute, ok := timeline.ParseClock(value)
	if !ok {
		return fmt.Errorf("%w: time must be HH:MM", ErrInvalidValue)
	}
	*target = fmt.Sprintf("%02d:%02d", hour, minute)
	return nil
}

func IsEditableField(field string) bool {
	_, exists := editableFields[field]
	return exists
}

// BeginEdit opens the edit session for one field of a local entry. Refreshes
// are held back until the edit is committed or cancelled.
func (b *Board) BeginEdit(id string, field string) error {
	if !IsEditableField(field) {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	b.mutex.RLock()
	_, err := b.document.Find(id)
	b.mutex.RUnlock()
	if err != nil {
		if b.isExternal(id) {
			return ErrReadOnlyEntry
		}
		return err
	}

	return b.session.Begin(id, field)
}

func (b *Board) CancelEdit(id string) error {
	return b.session.End(id)
}

func (b *Board) isExternal(id string) bool {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	for _, entry := range b.external {
		if entry.ID == id && entry.IsExternal() {
			return true
		}
	}
	return false
}

// ApplyEdit commits one field change: the change is staged on a copy, saved
// and only then becomes the model. The edit session for the entry ends.
func (b *Board) ApplyEdit(ctx context.Context, id string, field string, value string) (ctdf.Entry, error) {
	apply, exists := editableFields[field]
	if !exists {
		return ctdf.Entry{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	snapshot := b.session.Snapshot()
	if snapshot.State == editsession.StateEditing && snapshot.EntryID != id {
		return ctdf.Entry{}, editsession.ErrEditInProgress
	}

	var edited ctdf.Entry
	err := b.commit(ctx, changelog.Record{Action: changelog.ActionEdit, EntryID: id, Field: field, Value: value}, func(document *schedule.Document) error {
		entry, err := document.Find(id)
		if err != nil {
			if b.isExternal(id) {
				return ErrReadOnlyEntry
			}
			return err
		}

		if err := apply(entry, value); err != nil {
			return err
		}
		edited = *entry

		if field == "date" || field == "weekday" {
			return document.Rehome(id)
		}
		return nil
	})
	if err != nil {
		return ctdf.Entry{}, err
	}

	if err := b.session.End(id); err != nil && !errors.Is(err, editsession.ErrNotEditing) {
		return edited, err
	}

	return edited, nil
}

// AddEntry validates and stores a new local entry
func (b *Board) AddEntry(ctx context.Context, entry ctdf.Entry) (ctdf.Entry, error) {
	if err := ValidateEntry(entry); err != nil {
		return ctdf.Entry{}, err
	}

	entry.ID = schedule.NewEntryID()
	entry.Weekday = strings.ToLower(strings.TrimSpace(entry.Weekday))
	entry.Date = strings.TrimSpace(entry.Date)
	var added ctdf.Entry
	err := b.commit(ctx, changelog.Record{Action: changelog.ActionAdd, EntryID: entry.ID}, func(document *schedule.Document) error {
		added = document.Add(entry)
		return nil
	})
	if err != nil {
		return ctdf.Entry{}, err
	}

	return added, nil
}

func (b *Board) DeleteEntry(ctx context.Context, id string) error {
	err := b.commit(ctx, changelog.Record{Action: changelog.ActionDelete, EntryID: id}, func(document *schedule.Document) error {
		return document.Remove(id)
	})
	if err != nil {
		return err
	}

	_ = b.session.End(id)
	return nil
}

// ReplaceDocument swaps in a whole schedule. Entries keep their ids, missing
// ones are assigned.
func (b *Board) ReplaceDocument(ctx context.Context, replacement schedule.Document) error {
	b.session.Abort()

	return b.commit(ctx, changelog.Record{Action: changelog.ActionReplace}, func(document *schedule.Document) error {
		*document = replacement.Clone()
		document.AssignIDs()

		for _, list := range []*[]ctdf.Entry{&document.Recurring, &document.OneOff, &document.Trains} {
			for i := range *list {
				(*list)[i].Source = ctdf.EntrySourceLocal
			}
		}
		return nil
	})
}

// commit stages mutate on a copy of the document, saves the copy and then
// makes it the model. A failed mutation or save leaves the model untouched.
// Commits run one at a time so none of them works from a stale copy.
func (b *Board) commit(ctx context.Context, record changelog.Record, mutate func(document *schedule.Document) error) error {
	b.commitMutex.Lock()
	defer b.commitMutex.Unlock()

	b.mutex.RLock()
	staged := b.document.Clone()
	b.mutex.RUnlock()

	if err := mutate(&staged); err != nil {
		return err
	}

	if err := b.store.Save(ctx, staged, record); err != nil {
		log.Error().Err(err).Str("action", string(record.Action)).Msg("Failed to save schedule")
		return fmt.Errorf("saving schedule: %w", err)
	}

	b.mutex.Lock()
	b.document = staged
	b.generation++
	b.mutex.Unlock()

	if b.metrics != nil {
		b.metrics.ScheduleSaves.WithLabelValues(string(record.Action)).Inc()
	}

	b.publish(ctdf.EventTypeScheduleSaved, ctdf.EventScheduleSaved{
		EntryCount: staged.Len(),
		EditedID:   record.EntryID,
	})

	return nil
}

// ValidateEntry checks a user supplied entry before it is stored. Line and
// planned time may be empty, an entry without a planned time is a note.
func ValidateEntry(entry ctdf.Entry) error {
	if entry.PlannedTime != "" {
		if _, _, ok := timeline.ParseClock(entry.PlannedTime); !ok {
			return fmt.Errorf("%w: plannedTime must be HH:MM", ErrInvalidValue)
		}
	}
	if entry.ActualTime != "" {
		if _, _, ok := timeline.ParseClock(entry.ActualTime); !ok {
			return fmt.Errorf("%w: actualTime must be HH:MM", ErrInvalidValue)
		}
	}

	hasDate := entry.Date != ""
	hasWeekday := entry.Weekday != ""
	if hasDate == hasWeekday {
		return fmt.Errorf("%w: exactly one of date or weekday is required", ErrInvalidValue)
	}
	if hasDate {
		if _, err := time.Parse(timeline.DateLayout, entry.Date); err != nil {
			return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidValue)
		}
	}
	if hasWeekday {
		if _, ok := ctdf.ParseWeekday(entry.Weekday); !ok {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidValue, entry.Weekday)
		}
	}

	return nil
}
