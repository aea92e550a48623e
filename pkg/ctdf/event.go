package ctdf

import (
	"time"
)

type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Body      interface{} `json:"body,omitempty"`
}

type EventType string

const (
	EventTypeScheduleSaved   EventType = "ScheduleSaved"
	EventTypeStationSelected EventType = "StationSelected"
	EventTypeFeedRefreshed   EventType = "FeedRefreshed"
)

// EventScheduleSaved is the body published after the local schedule has been
// written to disk.
type EventScheduleSaved struct {
	EntryCount int    `json:"entryCount"`
	EditedID   string `json:"editedId,omitempty"`
}
