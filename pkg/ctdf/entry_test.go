package ctdf

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryUnmarshalAliases(t *testing.T) {
	var entry Entry
	err := json.Unmarshal([]byte(`{
		"linie": "S 6",
		"ziel": "EXTRA:Friedberg",
		"plan": " 7:05 ",
		"ist": "7:09",
		"dauer": "3",
		"wochentag": "Dienstag",
		"cancelled": "true",
		"zwischenhalte": "Bad Vilbel\r\n\n  Dortelweil \n"
	}`), &entry)
	require.NoError(t, err)

	assert.Equal(t, Entry{
		LineID:          "S 6",
		Destination:     "EXTRA:Friedberg",
		PlannedTime:     "7:05",
		ActualTime:      "7:09",
		DurationMinutes: 3,
		Weekday:         "dienstag",
		Canceled:        true,
		Stops:           []string{"Bad Vilbel", "Dortelweil"},
	}, entry)
	assert.True(t, entry.IsRecurring())
}

func TestEntryDuration(t *testing.T) {
	tests := []struct {
		raw      string
		expected int
	}{
		{`{}`, 0},
		{`{"durationMinutes": 12}`, 12},
		{`{"durationMinutes": -4}`, 0},
		{`{"durationMinutes": "soon"}`, 0},
		{`{"durationMinutes": null}`, 0},
	}

	for _, test := range tests {
		var entry Entry
		require.NoError(t, json.Unmarshal([]byte(test.raw), &entry))
		assert.Equal(t, test.expected, entry.DurationMinutes, test.raw)
	}
}

func TestParseStopList(t *testing.T) {
	assert.Equal(t, []string{"Mainz", "Bingen"}, ParseStopList(json.RawMessage(`["Mainz", " ", "Bingen"]`)))
	assert.Nil(t, ParseStopList(nil))
	assert.Nil(t, ParseStopList(json.RawMessage(`42`)))
}

func TestParseWeekday(t *testing.T) {
	weekday, ok := ParseWeekday(" SAMSTAG")
	assert.True(t, ok)
	assert.Equal(t, time.Saturday, weekday)

	weekday, ok = ParseWeekday("Thursday")
	assert.True(t, ok)
	assert.Equal(t, time.Thursday, weekday)

	_, ok = ParseWeekday("someday")
	assert.False(t, ok)
}

func TestGetLineCategory(t *testing.T) {
	tests := map[string]LineCategory{
		"S1":     LineCategorySuburban,
		"s 25":   LineCategorySuburban,
		"42":     LineCategoryNumeric,
		"RE 5":   LineCategorySpecial,
		"ICE 71": LineCategorySpecial,
		"":       LineCategorySpecial,
	}

	for lineID, expected := range tests {
		assert.Equal(t, expected, GetLineCategory(lineID), lineID)
	}
}

func TestStopTags(t *testing.T) {
	busStop := Stop{Name: "Rathaus", Tags: []string{"Bus"}}
	assert.True(t, busStop.IsBusOnly())
	assert.True(t, busStop.HasTag("bus"))

	station := Stop{Name: "Hauptbahnhof", Tags: []string{"bus", "rail"}}
	assert.False(t, station.IsBusOnly())

	assert.False(t, (&Stop{Name: "Unknown"}).IsBusOnly())
}
