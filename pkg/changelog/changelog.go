package changelog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/travigo/departureboard/pkg/util"
)

type Action string

const (
	ActionReplace Action = "replace"
	ActionAdd     Action = "add"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
)

// Record is one line in a weekly log file
type Record struct {
	Timestamp  time.Time `json:"timestamp"`
	Action     Action    `json:"action"`
	EntryID    string    `json:"entryId,omitempty"`
	Field      string    `json:"field,omitempty"`
	Value      string    `json:"value,omitempty"`
	EntryCount int       `json:"entryCount"`
}

type Logger interface {
	Log(record Record) error
}

// Writer appends records to <directory>/<ISO week>.jsonl
type Writer struct {
	Directory string

	mutex sync.Mutex
}

func NewWriter(directory string) *Writer {
	return &Writer{Directory: directory}
}

func (w *Writer) Log(record Record) error {
	return w.Append(record)
}

func (w *Writer) path(label string) string {
	return filepath.Join(w.Directory, label+".jsonl")
}

func (w *Writer) Append(record Record) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := os.MkdirAll(w.Directory, 0o700); err != nil {
		return fmt.Errorf("changelog error creating directory: %w", err)
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("changelog error marshalling record: %w", err)
	}

	file, err := os.OpenFile(w.path(util.ISOWeekLabel(record.Timestamp)), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("changelog error opening file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("changelog error writing record: %w", err)
	}

	return nil
}

// ReadWeek returns the records logged in the ISO week containing t
func (w *Writer) ReadWeek(t time.Time) ([]Record, error) {
	file, err := os.Open(w.path(util.ISOWeekLabel(t)))
	if errors.Is(err, os.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("changelog error opening file: %w", err)
	}
	defer file.Close()

	records := []Record{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record Record
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			continue
		}
		records = append(records, record)
	}

	return records, scanner.Err()
}
