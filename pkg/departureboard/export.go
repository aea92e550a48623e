package departureboard

import (
	"github.com/gocarina/gocsv"
)

type csvRow struct {
	Date         string `csv:"date"`
	PlannedTime  string `csv:"planned"`
	ActualTime   string `csv:"actual"`
	DelayMinutes int    `csv:"delay_minutes"`
	LineID       string `csv:"line"`
	Category     string `csv:"category"`
	Destination  string `csv:"destination"`
	Canceled     bool   `csv:"canceled"`
	Occupying    bool   `csv:"occupying"`
	Source       string `csv:"source"`
}

// ExportCSV writes the board list, one row per entry
func ExportCSV(board Board) ([]byte, error) {
	rows := make([]*csvRow, 0, len(board.List))

	for _, entry := range board.List {
		rows = append(rows, &csvRow{
			Date:         entry.Date,
			PlannedTime:  entry.PlannedTime,
			ActualTime:   entry.ActualTime,
			DelayMinutes: entry.DelayMinutes,
			LineID:       entry.LineID,
			Category:     string(entry.LineCategory),
			Destination:  entry.Destination,
			Canceled:     entry.Canceled,
			Occupying:    entry.Occupying,
			Source:       string(entry.Source),
		})
	}

	return gocsv.MarshalBytes(&rows)
}
