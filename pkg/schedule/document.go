package schedule

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/ctdf"
)

var ErrEntryNotFound = errors.New("schedule entry not found")

// Document is the persisted shape of the local schedule. Trains holds the
// legacy flat list where each record carries either a date or a weekday.
type Document struct {
	Recurring []ctdf.Entry `json:"recurring"`
	OneOff    []ctdf.Entry `json:"oneOff"`
	Trains    []ctdf.Entry `json:"trains,omitempty"`
}

func NewEntryID() string {
	return uuid.NewString()
}

// AssignIDs gives every entry without an id a fresh one and reports whether
// anything changed. Existing ids are never touched.
func (d *Document) AssignIDs() bool {
	changed := false

	for _, list := range []*[]ctdf.Entry{&d.Recurring, &d.OneOff, &d.Trains} {
		for i := range *list {
			if (*list)[i].ID == "" {
				(*list)[i].ID = NewEntryID()
				changed = true
			}
		}
	}

	return changed
}

// Split routes legacy flat entries into the recurring and one-off lists
func (d *Document) Split() (recurring []ctdf.Entry, oneOff []ctdf.Entry) {
	recurring = append(recurring, d.Recurring...)
	oneOff = append(oneOff, d.OneOff...)

	for _, entry := range d.Trains {
		if entry.IsRecurring() {
			recurring = append(recurring, entry)
		} else {
			oneOff = append(oneOff, entry)
		}
	}

	return recurring, oneOff
}

func (d Document) Len() int {
	return len(d.Recurring) + len(d.OneOff) + len(d.Trains)
}

// Find returns a pointer into the document for in place edits
func (d *Document) Find(id string) (*ctdf.Entry, error) {
	for _, list := range []*[]ctdf.Entry{&d.Recurring, &d.OneOff, &d.Trains} {
		for i := range *list {
			if (*list)[i].ID == id {
				return &(*list)[i], nil
			}
		}
	}

	return nil, ErrEntryNotFound
}

// Add places the entry in the list matching its date or weekday and assigns
// an id if it has none.
func (d *Document) Add(entry ctdf.Entry) ctdf.Entry {
	if entry.ID == "" {
		entry.ID = NewEntryID()
	}
	entry.Source = ctdf.EntrySourceLocal

	if entry.IsRecurring() {
		d.Recurring = append(d.Recurring, entry)
	} else {
		d.OneOff = append(d.OneOff, entry)
	}

	return entry
}

func (d *Document) Remove(id string) error {
	for _, list := range []*[]ctdf.Entry{&d.Recurring, &d.OneOff, &d.Trains} {
		for i := range *list {
			if (*list)[i].ID == id {
				*list = append((*list)[:i], (*list)[i+1:]...)
				return nil
			}
		}
	}

	return ErrEntryNotFound
}

// Rehome moves an entry whose date/weekday changed into the right list
func (d *Document) Rehome(id string) error {
	entry, err := d.Find(id)
	if err != nil {
		return err
	}

	moved := *entry
	if err := d.Remove(id); err != nil {
		return err
	}
	d.Add(moved)

	return nil
}

// Clone returns a deep copy so edits can be staged without touching the
// committed document.
func (d *Document) Clone() Document {
	clone := Document{
		Recurring: cloneEntries(d.Recurring),
		OneOff:    cloneEntries(d.OneOff),
		Trains:    cloneEntries(d.Trains),
	}

	return clone
}

func cloneEntries(entries []ctdf.Entry) []ctdf.Entry {
	if entries == nil {
		return nil
	}

	var cloned []ctdf.Entry
	if err := copier.CopyWithOption(&cloned, &entries, copier.Option{DeepCopy: true}); err != nil {
		log.Error().Err(err).Msg("Failed to copy schedule entries")
	}

	return cloned
}
