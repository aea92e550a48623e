package routes

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/departureboard/pkg/ctdf"
)

func TestWriteEvent(t *testing.T) {
	var buffer bytes.Buffer

	err := WriteEvent(&buffer, ctdf.Event{
		Type:      ctdf.EventTypeScheduleSaved,
		Timestamp: time.Date(2025, 3, 2, 18, 30, 0, 0, time.UTC),
		Body:      ctdf.EventScheduleSaved{EntryCount: 4, EditedID: "abc"},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"event: ScheduleSaved\n"+
			`data: {"type":"ScheduleSaved","timestamp":"2025-03-02T18:30:00Z","body":{"entryCount":4,"editedId":"abc"}}`+"\n\n",
		buffer.String())
}

func TestEditRequestText(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{`"09:15"`, "09:15"},
		{`12`, "12"},
		{`true`, "true"},
		{`null`, ""},
		{`["Mainz","Bingen"]`, "Mainz\nBingen"},
	}

	for _, test := range tests {
		request := editRequest{Field: "x", Value: json.RawMessage(test.raw)}
		assert.Equal(t, test.expected, request.text(), test.raw)
	}
}
