package changelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterAppendsPerWeek(t *testing.T) {
	writer := NewWriter(t.TempDir())

	friday := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	nextMonday := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, writer.Log(Record{Timestamp: friday, Action: ActionAdd, EntryID: "a", EntryCount: 1}))
	require.NoError(t, writer.Log(Record{Timestamp: friday.Add(time.Hour), Action: ActionEdit, EntryID: "a", Field: "actualTime", Value: "10:05", EntryCount: 1}))
	require.NoError(t, writer.Log(Record{Timestamp: nextMonday, Action: ActionDelete, EntryID: "a"}))

	_, err := os.Stat(filepath.Join(writer.Directory, "2026-W09.jsonl"))
	require.NoError(t, err)

	records, err := writer.ReadWeek(friday)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ActionEdit, records[1].Action)
	assert.Equal(t, "10:05", records[1].Value)

	records, err = writer.ReadWeek(nextMonday)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, ActionDelete, records[0].Action)
}

func TestReadWeekMissingFile(t *testing.T) {
	writer := NewWriter(t.TempDir())

	records, err := writer.ReadWeek(time.Now())

	require.NoError(t, err)
	assert.Empty(t, records)
}
