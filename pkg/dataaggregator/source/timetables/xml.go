package timetables

import (
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

type stationList struct {
	XMLName  xml.Name  `xml:"stations"`
	Stations []station `xml:"station"`
}

type station struct {
	Name  string `xml:"name,attr"`
	EVA   string `xml:"eva,attr"`
	DS100 string `xml:"ds100,attr"`
	DB    string `xml:"db,attr"`
}

type timetable struct {
	XMLName xml.Name `xml:"timetable"`
	Station string   `xml:"station,attr"`
	Stops   []stop   `xml:"s"`
}

type stop struct {
	ID        string     `xml:"id,attr"`
	TripLabel tripLabel  `xml:"tl"`
	Arrival   *stopEvent `xml:"ar"`
	Departure *stopEvent `xml:"dp"`
}

type tripLabel struct {
	Category string `xml:"c,attr"`
	Number   string `xml:"n,attr"`
	Filter   string `xml:"f,attr"`
	Type     string `xml:"t,attr"`
	Owner    string `xml:"o,attr"`
}

type stopEvent struct {
	PlannedTime     string `xml:"pt,attr"`
	ChangedTime     string `xml:"ct,attr"`
	PlannedPlatform string `xml:"pp,attr"`
	PlannedPath     string `xml:"ppth,attr"`
	ChangedPath     string `xml:"cpth,attr"`
	ChangedStatus   string `xml:"cs,attr"`
	Line            string `xml:"l,attr"`
}

func (e *stopEvent) path() []string {
	path := e.PlannedPath
	if e.ChangedPath != "" {
		path = e.ChangedPath
	}
	if path == "" {
		return nil
	}

	return strings.Split(path, "|")
}

func (e *stopEvent) isCancelled() bool {
	return e != nil && e.ChangedStatus == "c"
}

func decodeXML(reader io.Reader, value any) error {
	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel

	return d.Decode(value)
}
