package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/changelog"
	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/schedule"
)

const FileName = "schedule.json"

// FileStore keeps the local schedule as one JSON document in Directory
type FileStore struct {
	Directory string
	Changelog changelog.Logger

	mutex sync.Mutex
	now   func() time.Time
}

func New(directory string, logger changelog.Logger) *FileStore {
	return &FileStore{
		Directory: directory,
		Changelog: logger,
		now:       time.Now,
	}
}

func (s *FileStore) Path() string {
	return filepath.Join(s.Directory, FileName)
}

// Load reads the schedule document. A missing file is an empty schedule, a
// corrupt one is moved aside to <file>.corrupt and reported as an error.
// Entries without an id get one and the document is written back.
func (s *FileStore) Load(ctx context.Context) (schedule.Document, error) {
	if err := ctx.Err(); err != nil {
		return schedule.Document{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	path := s.Path()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return emptyDocument(), nil
	}
	if err != nil {
		return schedule.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var document schedule.Document
	if err := json.Unmarshal(data, &document); err != nil {
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return schedule.Document{}, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}

	if document.AssignIDs() {
		log.Info().Str("path", path).Msg("Assigned ids to schedule entries")

		if err := s.write(document); err != nil {
			return schedule.Document{}, err
		}
	}

	return document, nil
}

// Save writes the document atomically and records the change in the weekly log
func (s *FileStore) Save(ctx context.Context, document schedule.Document, record changelog.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.write(document); err != nil {
		return err
	}

	if s.Changelog != nil {
		if record.Timestamp.IsZero() {
			record.Timestamp = s.now()
		}
		record.EntryCount = document.Len()

		if err := s.Changelog.Log(record); err != nil {
			log.Warn().Err(err).Str("action", string(record.Action)).Msg("Failed to record schedule change")
		}
	}

	return nil
}

func (s *FileStore) write(document schedule.Document) error {
	if err := os.MkdirAll(s.Directory, 0o700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	if document.Recurring == nil {
		document.Recurring = []ctdf.Entry{}
	}
	if document.OneOff == nil {
		document.OneOff = []ctdf.Entry{}
	}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}

	path := s.Path()
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

func emptyDocument() schedule.Document {
	return schedule.Document{
		Recurring: []ctdf.Entry{},
		OneOff:    []ctdf.Entry{},
	}
}
