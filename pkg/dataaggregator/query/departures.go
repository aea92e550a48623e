package query

import (
	"time"

	"github.com/travigo/departureboard/pkg/ctdf"
)

type Departures struct {
	Stop *ctdf.Stop
	Now  time.Time
}
