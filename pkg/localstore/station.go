package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/travigo/departureboard/pkg/ctdf"
)

const StationFileName = "station.json"

func (s *FileStore) stationPath() string {
	return filepath.Join(s.Directory, StationFileName)
}

// LoadStation returns the selected stop, nil when none is selected
func (s *FileStore) LoadStation(ctx context.Context) (*ctdf.Stop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := os.ReadFile(s.stationPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading station: %w", err)
	}

	var stop ctdf.Stop
	if err := json.Unmarshal(data, &stop); err != nil {
		return nil, fmt.Errorf("corrupt station file: %w", err)
	}

	return &stop, nil
}

// SaveStation persists the selected stop, nil clears the selection
func (s *FileStore) SaveStation(ctx context.Context, stop *ctdf.Stop) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if stop == nil {
		if err := os.Remove(s.stationPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("clearing station: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(s.Directory, 0o700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	data, err := json.Marshal(stop)
	if err != nil {
		return err
	}

	tmpPath := s.stationPath() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.stationPath()); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
