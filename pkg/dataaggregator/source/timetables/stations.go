package timetables

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/dataaggregator/query"
	"github.com/travigo/departureboard/pkg/util"
)

// DefaultStationFilter drops bus-only stops. Stops without tags are kept when
// they carry an identifier or a short code.
const DefaultStationFilter = `len(Tags) == 0 ? (Identifier != "" || ShortCode != "") : any(Tags, {# != "bus"})`

func CompileStationFilter(filter string) (*vm.Program, error) {
	if strings.TrimSpace(filter) == "" {
		filter = DefaultStationFilter
	}

	program, err := expr.Compile(filter, expr.Env(ctdf.Stop{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling station filter: %w", err)
	}

	return program, nil
}

func (s *Source) StopSearchQuery(ctx context.Context, q query.StopSearch) ([]*ctdf.Stop, error) {
	pattern := strings.TrimSpace(q.Query)
	if pattern == "" {
		return []*ctdf.Stop{}, nil
	}

	body, err := s.get(ctx, "/station/"+escapePath(pattern), true)
	if errors.Is(err, errNotFound) {
		return []*ctdf.Stop{}, nil
	}
	if err != nil {
		return nil, err
	}

	var list stationList
	if err := decodeXML(strings.NewReader(body), &list); err != nil {
		return nil, fmt.Errorf("decoding stations: %w", err)
	}

	stops := make([]*ctdf.Stop, 0, len(list.Stations))
	for _, result := range list.Stations {
		stops = append(stops, result.toStop())
	}
	util.InPlaceFilter(&stops, s.keep)

	return stops, nil
}

func (s *Source) keep(stop *ctdf.Stop) bool {
	if s.stationFilter == nil {
		return true
	}

	result, err := expr.Run(s.stationFilter, *stop)
	if err != nil {
		log.Debug().Err(err).Str("stop", stop.Name).Msg("Station filter failed")
		return false
	}

	keep, _ := result.(bool)
	return keep
}

// busNameMarkers are the name words the station directory uses for bus
// stops; it has no mode attribute of its own
var busNameMarkers = map[string]bool{
	"bus":            true,
	"busbahnhof":     true,
	"bushaltestelle": true,
	"zob":            true,
}

func isBusStationName(name string) bool {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	for _, word := range words {
		if busNameMarkers[word] {
			return true
		}
	}

	return false
}

func (r station) toStop() *ctdf.Stop {
	var tags []string
	if r.DB == "true" {
		tags = append(tags, "rail")
	}
	if isBusStationName(r.Name) {
		tags = append(tags, "bus")
	}

	return &ctdf.Stop{
		Identifier: r.EVA,
		ShortCode:  r.DS100,
		Name:       r.Name,
		Tags:       util.NormaliseTags(tags),
	}
}
