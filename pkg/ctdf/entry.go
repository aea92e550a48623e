package ctdf

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type EntrySource string

const (
	EntrySourceLocal        EntrySource = "local"
	EntrySourceExternalFeed EntrySource = "external-feed"
)

// Entry is a single scheduled movement at the board's stop.
type Entry struct {
	ID          string `json:"id" groups:"basic,full"`
	LineID      string `json:"lineId" groups:"basic,full"`
	Destination string `json:"destination" groups:"basic,full"`

	PlannedTime string `json:"plannedTime,omitempty" groups:"basic,full"`
	ActualTime  string `json:"actualTime,omitempty" groups:"basic,full"`

	DurationMinutes int `json:"durationMinutes,omitempty" groups:"full"`

	Date    string `json:"date,omitempty" groups:"basic,full"`
	Weekday string `json:"weekday,omitempty" groups:"full"`

	Canceled bool     `json:"canceled" groups:"basic,full"`
	Stops    []string `json:"stops,omitempty" groups:"full"`

	Source EntrySource `json:"source,omitempty" groups:"basic,full"`
}

func (e *Entry) IsRecurring() bool {
	return e.Weekday != "" && e.Date == ""
}

func (e *Entry) IsExternal() bool {
	return e.Source == EntrySourceExternalFeed
}

// Field names have drifted across schedule file versions, each list is in order of preference
var entryFieldAliases = map[string][]string{
	"id":              {"id"},
	"lineId":          {"lineId", "linie", "line"},
	"destination":     {"destination", "ziel"},
	"plannedTime":     {"plannedTime", "plan"},
	"actualTime":      {"actualTime", "actual", "ist"},
	"durationMinutes": {"durationMinutes", "dauer", "duration"},
	"date":            {"date", "datum"},
	"weekday":         {"weekday", "wochentag"},
	"canceled":        {"canceled", "cancelled"},
	"stops":           {"stops", "zwischenhalte", "via"},
	"source":          {"source"},
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*e = Entry{
		ID:              stringField(fields, "id"),
		LineID:          stringField(fields, "lineId"),
		Destination:     stringField(fields, "destination"),
		PlannedTime:     strings.TrimSpace(stringField(fields, "plannedTime")),
		ActualTime:      strings.TrimSpace(stringField(fields, "actualTime")),
		DurationMinutes: max(intField(fields, "durationMinutes"), 0),
		Date:            strings.TrimSpace(stringField(fields, "date")),
		Weekday:         strings.ToLower(strings.TrimSpace(stringField(fields, "weekday"))),
		Canceled:        boolField(fields, "canceled"),
		Stops:           ParseStopList(rawField(fields, "stops")),
		Source:          EntrySource(stringField(fields, "source")),
	}

	return nil
}

func rawField(fields map[string]json.RawMessage, name string) json.RawMessage {
	for _, alias := range entryFieldAliases[name] {
		if value, exists := fields[alias]; exists && string(value) != "null" {
			return value
		}
	}

	return nil
}

func stringField(fields map[string]json.RawMessage, name string) string {
	raw := rawField(fields, name)
	if raw == nil {
		return ""
	}

	var value string
	if err := json.Unmarshal(raw, &value); err == nil {
		return value
	}

	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		return number.String()
	}

	return ""
}

func intField(fields map[string]json.RawMessage, name string) int {
	raw := rawField(fields, name)
	if raw == nil {
		return 0
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return int(number)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if value, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
			return value
		}
	}

	return 0
}

func boolField(fields map[string]json.RawMessage, name string) bool {
	raw := rawField(fields, name)
	if raw == nil {
		return false
	}

	var value bool
	if err := json.Unmarshal(raw, &value); err == nil {
		return value
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		parsed, _ := strconv.ParseBool(strings.TrimSpace(text))
		return parsed
	}

	return false
}

// ParseStopList accepts either a JSON array of names or a single string with
// one stop per line and returns the ordered, trimmed, non-empty stop names.
func ParseStopList(raw json.RawMessage) []string {
	if raw == nil {
		return nil
	}

	var names []string

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		names = list
	} else {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil
		}
		names = strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	}

	var stops []string
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			stops = append(stops, trimmed)
		}
	}

	return stops
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,

	"sonntag":    time.Sunday,
	"montag":     time.Monday,
	"dienstag":   time.Tuesday,
	"mittwoch":   time.Wednesday,
	"donnerstag": time.Thursday,
	"freitag":    time.Friday,
	"samstag":    time.Saturday,
}

func ParseWeekday(name string) (time.Weekday, bool) {
	weekday, exists := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	return weekday, exists
}

type LineCategory string

const (
	LineCategorySuburban LineCategory = "Suburban"
	LineCategoryNumeric  LineCategory = "Numeric"
	LineCategorySpecial  LineCategory = "Special"
)

var suburbanLineRegex = regexp.MustCompile(`^S\s?\d+$`)
var numericLineRegex = regexp.MustCompile(`^\d+$`)

func GetLineCategory(lineID string) LineCategory {
	lineID = strings.ToUpper(strings.TrimSpace(lineID))

	switch {
	case suburbanLineRegex.MatchString(lineID):
		return LineCategorySuburban
	case numericLineRegex.MatchString(lineID):
		return LineCategoryNumeric
	default:
		return LineCategorySpecial
	}
}
