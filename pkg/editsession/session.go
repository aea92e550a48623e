package editsession

import (
	"errors"
	"strings"
	"sync"
	"time"
)

var ErrEditInProgress = errors.New("another entry is being edited")
var ErrNotEditing = errors.New("no edit in progress for this entry")

type State string

const (
	StateIdle    State = "Idle"
	StateEditing State = "Editing"
)

type Snapshot struct {
	State   State     `json:"state"`
	EntryID string    `json:"entryId,omitempty"`
	Field   string    `json:"field,omitempty"`
	Since   time.Time `json:"since,omitempty"`
}

// Session tracks the single field being edited. While a field is being
// edited refreshes are held back so they do not overwrite the form.
type Session struct {
	mutex sync.Mutex

	state   State
	entryID string
	field   string
	since   time.Time

	// Timeout releases an abandoned edit, zero disables it
	Timeout time.Duration

	now func() time.Time
}

func New(timeout time.Duration) *Session {
	return &Session{
		state:   StateIdle,
		Timeout: timeout,
		now:     time.Now,
	}
}

// Begin moves Idle -> Editing. Starting again on the same entry switches the
// field being edited.
func (s *Session) Begin(entryID string, field string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.expire()

	if s.state == StateEditing && s.entryID != entryID {
		return ErrEditInProgress
	}

	s.state = StateEditing
	s.entryID = strings.Clone(entryID)
	s.field = strings.Clone(field)
	s.since = s.now()

	return nil
}

// End moves Editing -> Idle for the given entry
func (s *Session) End(entryID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state != StateEditing || s.entryID != entryID {
		return ErrNotEditing
	}

	s.reset()

	return nil
}

// Abort drops any edit in progress
func (s *Session) Abort() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.reset()
}

func (s *Session) IsEditing(entryID string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.expire()

	return s.state == StateEditing && s.entryID == entryID
}

// RefreshAllowed is the guard checked before any refresh replaces the model
func (s *Session) RefreshAllowed() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.expire()

	return s.state == StateIdle
}

func (s *Session) Snapshot() Snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.expire()

	return Snapshot{
		State:   s.state,
		EntryID: s.entryID,
		Field:   s.field,
		Since:   s.since,
	}
}

func (s *Session) expire() {
	if s.state == StateEditing && s.Timeout > 0 && s.now().Sub(s.since) > s.Timeout {
		s.reset()
	}
}

func (s *Session) reset() {
	s.state = StateIdle
	s.entryID = ""
	s.field = ""
	s.since = time.Time{}
}
