package localstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/departureboard/pkg/changelog"
	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/schedule"
)

type recordingLogger struct {
	records []changelog.Record
}

func (r *recordingLogger) Log(record changelog.Record) error {
	r.records = append(r.records, record)
	return nil
}

func TestLoadMissingFile(t *testing.T) {
	store := New(t.TempDir(), nil)

	document, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, document.Len())
	assert.NotNil(t, document.Recurring)
	assert.NotNil(t, document.OneOff)
}

func TestSaveThenLoad(t *testing.T) {
	logger := &recordingLogger{}
	store := New(t.TempDir(), logger)
	store.now = func() time.Time { return time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC) }

	document := schedule.Document{}
	added := document.Add(ctdf.Entry{LineID: "S3", Destination: "Airport", PlannedTime: "09:15", Weekday: "monday", DurationMinutes: 5})

	require.NoError(t, store.Save(context.Background(), document, changelog.Record{Action: changelog.ActionAdd, EntryID: added.ID}))

	_, err := os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded.Recurring, 1)
	assert.Equal(t, added.ID, loaded.Recurring[0].ID)
	assert.Equal(t, "Airport", loaded.Recurring[0].Destination)

	require.Len(t, logger.records, 1)
	assert.Equal(t, 1, logger.records[0].EntryCount)
	assert.Equal(t, store.now(), logger.records[0].Timestamp)
}

func TestLoadAssignsMissingIDsOnce(t *testing.T) {
	store := New(t.TempDir(), nil)
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"trains":[{"linie":"S1","ziel":"Hbf","plan":"10:00","datum":"2025-01-08"}]}`), 0o600))

	first, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Trains, 1)
	require.NotEmpty(t, first.Trains[0].ID)

	second, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Trains[0].ID, second.Trains[0].ID)
}

func TestLoadCorruptFile(t *testing.T) {
	directory := t.TempDir()
	store := New(directory, nil)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o600))

	_, err := store.Load(context.Background())

	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(directory, FileName+".corrupt"))
	assert.NoError(t, statErr)
}

func TestSaveCancelledContext(t *testing.T) {
	store := New(t.TempDir(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Save(ctx, schedule.Document{}, changelog.Record{Action: changelog.ActionReplace})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestStationRoundTrip(t *testing.T) {
	store := New(t.TempDir(), nil)
	ctx := context.Background()

	stop, err := store.LoadStation(ctx)
	require.NoError(t, err)
	assert.Nil(t, stop)

	require.NoError(t, store.SaveStation(ctx, &ctdf.Stop{Identifier: "8000105", Name: "Frankfurt(Main)Hbf", Tags: []string{"rail"}}))

	stop, err = store.LoadStation(ctx)
	require.NoError(t, err)
	require.NotNil(t, stop)
	assert.Equal(t, "8000105", stop.Identifier)

	require.NoError(t, store.SaveStation(ctx, nil))
	require.NoError(t, store.SaveStation(ctx, nil))

	stop, err = store.LoadStation(ctx)
	require.NoError(t, err)
	assert.Nil(t, stop)
}
