package timetables

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/dataaggregator/query"
	"github.com/travigo/departureboard/pkg/dataaggregator/source/cachedresults"
)

const planNine = `<?xml version="1.0" encoding="UTF-8"?>
<timetable station="Frankfurt(Main)Hbf">
<s id="a-1"><tl f="S" t="p" o="800528" c="S" n="35123"/><ar pt="2501080938" pp="101" l="3" ppth="Bad Soden|Frankfurt-Höchst"/><dp pt="2501080940" pp="101" l="3" ppth="Frankfurt-Süd|Darmstadt Hbf"/></s>
<s id="b-2"><tl f="F" t="p" o="80" c="ICE" n="571"/><dp pt="2501080955" pp="7" ppth="Mannheim Hbf|Stuttgart Hbf"/></s>
</timetable>`

const planTen = `<?xml version="1.0" encoding="UTF-8"?>
<timetable station="Frankfurt(Main)Hbf">
<s id="c-3"><tl c="RE" n="4711"/><ar pt="2501081005" ppth="Hanau Hbf|Offenbach"/></s>
</timetable>`

const changes = `<?xml version="1.0" encoding="UTF-8"?>
<timetable station="Frankfurt(Main)Hbf">
<s id="a-1"><dp ct="2501080946"/></s>
<s id="b-2"><dp cs="c"/></s>
<s id="unknown"><dp ct="2501081100"/></s>
</timetable>`

const changesWithAddedTrips = `<?xml version="1.0" encoding="UTF-8"?>
<timetable station="Frankfurt(Main)Hbf">
<s id="a-1"><dp ct="2501080946"/></s>
<s id="unknown"><dp ct="2501081100"/></s>
<s id="d-4"><tl f="N" t="p" o="800" c="RB" n="15999"/><dp pt="2501081015" ct="2501081018" cs="a" cpth="Mainz Hbf|Wiesbaden Hbf"/></s>
<s id="e-5"><tl c="RB" n="16001"/><dp pt="2501081230" cs="a" cpth="Mainz Hbf"/></s>
<s id="f-6"><tl c="SEV" n="1"/><ar pt="2501080950" cs="a" cpth="Frankfurt-Höchst"/></s>
</timetable>`

type fakeAPI struct {
	mutex    sync.Mutex
	requests map[string]int
	headers  http.Header
	handler  func(w http.ResponseWriter, r *http.Request, attempt int)
}

func newFakeAPI(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, attempt int)) (*fakeAPI, *httptest.Server) {
	api := &fakeAPI{requests: map[string]int{}, handler: handler}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mutex.Lock()
		api.requests[r.URL.Path]++
		attempt := api.requests[r.URL.Path]
		api.headers = r.Header.Clone()
		api.mutex.Unlock()

		api.handler(w, r, attempt)
	}))
	t.Cleanup(server.Close)

	return api, server
}

func (f *fakeAPI) count(path string) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.requests[path]
}

func timetableHandler(w http.ResponseWriter, r *http.Request, attempt int) {
	switch r.URL.Path {
	case "/plan/8000105/250108/09":
		w.Write([]byte(planNine))
	case "/plan/8000105/250108/10":
		w.Write([]byte(planTen))
	case "/fchg/8000105":
		w.Write([]byte(changes))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestSource(t *testing.T, baseURL string, cache *cachedresults.Cache) *Source {
	location, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	s, err := New(context.Background(), Options{
		BaseURL:        baseURL,
		ClientID:       "client",
		APIKey:         "secret",
		Timeout:        time.Second,
		LookaheadHours: 2,
		Location:       location,
		Cache:          cache,
	})
	require.NoError(t, err)
	s.RetryInterval = time.Millisecond

	return s
}

func frankfurt() *ctdf.Stop {
	return &ctdf.Stop{Identifier: "8000105", ShortCode: "FF", Name: "Frankfurt(Main)Hbf"}
}

func TestDeparturesQuery(t *testing.T) {
	api, server := newFakeAPI(t, timetableHandler)
	s := newTestSource(t, server.URL, nil)
	now := time.Date(2025, 1, 8, 9, 30, 0, 0, s.Location)

	entries, err := s.DeparturesQuery(context.Background(), query.Departures{Stop: frankfurt(), Now: now})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "a-1", entries[0].ID)
	assert.Equal(t, "S3", entries[0].LineID)
	assert.Equal(t, "09:40", entries[0].PlannedTime)
	assert.Equal(t, "09:46", entries[0].ActualTime)
	assert.Equal(t, "2025-01-08", entries[0].Date)
	assert.Equal(t, "Darmstadt Hbf", entries[0].Destination)
	assert.Equal(t, []string{"Frankfurt-Süd"}, entries[0].Stops)
	assert.Equal(t, ctdf.EntrySourceExternalFeed, entries[0].Source)
	assert.Equal(t, 0, entries[0].DurationMinutes)

	assert.Equal(t, "ICE 571", entries[1].LineID)
	assert.True(t, entries[1].Canceled)
	assert.Empty(t, entries[1].ActualTime)

	assert.Equal(t, "RE 4711", entries[2].LineID)
	assert.Equal(t, "10:05", entries[2].PlannedTime)
	assert.Equal(t, "Frankfurt(Main)Hbf", entries[2].Destination)
	assert.Equal(t, []string{"Hanau Hbf", "Offenbach"}, entries[2].Stops)

	assert.Equal(t, "client", api.headers.Get("DB-Client-Id"))
	assert.Equal(t, "secret", api.headers.Get("DB-Api-Key"))
}

func TestDeparturesQueryIncludesAddedTrips(t *testing.T) {
	_, server := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, attempt int) {
		if r.URL.Path == "/fchg/8000105" {
			w.Write([]byte(changesWithAddedTrips))
			return
		}
		timetableHandler(w, r, attempt)
	})
	s := newTestSource(t, server.URL, nil)
	now := time.Date(2025, 1, 8, 9, 30, 0, 0, s.Location)

	entries, err := s.DeparturesQuery(context.Background(), query.Departures{Stop: frankfurt(), Now: now})
	require.NoError(t, err)
	require.Len(t, entries, 5)

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ID)
	}
	assert.Equal(t, []string{"a-1", "f-6", "b-2", "c-3", "d-4"}, ids)

	added := entries[4]
	assert.Equal(t, "RB 15999", added.LineID)
	assert.Equal(t, "10:15", added.PlannedTime)
	assert.Equal(t, "10:18", added.ActualTime)
	assert.Equal(t, "Wiesbaden Hbf", added.Destination)
	assert.Equal(t, []string{"Mainz Hbf"}, added.Stops)
	assert.Equal(t, ctdf.EntrySourceExternalFeed, added.Source)

	terminating := entries[1]
	assert.Equal(t, "SEV 1", terminating.LineID)
	assert.Equal(t, "09:50", terminating.PlannedTime)
	assert.Equal(t, "Frankfurt(Main)Hbf", terminating.Destination)
}

func TestDeparturesQuerySkipsMissingHours(t *testing.T) {
	_, server := newFakeAPI(t, timetableHandler)
	s := newTestSource(t, server.URL, nil)
	s.LookaheadHours = 3

	entries, err := s.DeparturesQuery(context.Background(), query.Departures{
		Stop: frankfurt(),
		Now:  time.Date(2025, 1, 8, 9, 0, 0, 0, s.Location),
	})

	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestDeparturesQueryWithoutStop(t *testing.T) {
	s := newTestSource(t, "http://127.0.0.1:1", nil)

	entries, err := s.DeparturesQuery(context.Background(), query.Departures{})

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRetriesOnceOnServerError(t *testing.T) {
	api, server := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, attempt int) {
		if attempt == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		timetableHandler(w, r, attempt)
	})
	s := newTestSource(t, server.URL, nil)
	s.LookaheadHours = 1

	entries, err := s.DeparturesQuery(context.Background(), query.Departures{
		Stop: frankfurt(),
		Now:  time.Date(2025, 1, 8, 9, 30, 0, 0, s.Location),
	})

	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 2, api.count("/plan/8000105/250108/09"))
}

func TestGivesUpAfterOneRetry(t *testing.T) {
	api, server := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, attempt int) {
		w.WriteHeader(http.StatusBadGateway)
	})
	s := newTestSource(t, server.URL, nil)

	_, err := s.DeparturesQuery(context.Background(), query.Departures{
		Stop: frankfurt(),
		Now:  time.Date(2025, 1, 8, 9, 30, 0, 0, s.Location),
	})

	require.Error(t, err)
	assert.Equal(t, 2, api.count("/plan/8000105/250108/09"))
}

func TestPlansAreCached(t *testing.T) {
	redisServer := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: redisServer.Addr()})
	defer client.Close()

	api, server := newFakeAPI(t, timetableHandler)
	s := newTestSource(t, server.URL, cachedresults.New(client, "timetables:", time.Minute))
	q := query.Departures{Stop: frankfurt(), Now: time.Date(2025, 1, 8, 9, 30, 0, 0, s.Location)}

	for i := 0; i < 2; i++ {
		entries, err := s.DeparturesQuery(context.Background(), q)
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	}

	assert.Equal(t, 1, api.count("/plan/8000105/250108/09"))
	assert.Equal(t, 2, api.count("/fchg/8000105"))
}

func TestStopSearchQuery(t *testing.T) {
	_, server := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, attempt int) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>" +
			"<stations>" +
			"<station name=\"M\xfcnchen Hbf\" eva=\"8000261\" ds100=\"MH\" db=\"true\"/>" +
			"<station name=\"Unknown\" eva=\"\" ds100=\"\" db=\"false\"/>" +
			"</stations>"))
	})
	s := newTestSource(t, server.URL, nil)

	stops, err := s.StopSearchQuery(context.Background(), query.StopSearch{Query: "München"})

	require.NoError(t, err)
	require.Len(t, stops, 1)
	assert.Equal(t, "München Hbf", stops[0].Name)
	assert.Equal(t, "8000261", stops[0].Identifier)
	assert.Equal(t, "MH", stops[0].ShortCode)
	assert.Equal(t, []string{"rail"}, stops[0].Tags)
}

func TestStopSearchQueryDropsBusStations(t *testing.T) {
	_, server := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, attempt int) {
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
			`<stations>` +
			`<station name="Mainz Hbf" eva="8000240" ds100="FMZ" db="true"/>` +
			`<station name="Mainz Hbf (Bus)" eva="469013" ds100="" db="false"/>` +
			`<station name="Mainz ZOB" eva="469014" ds100="" db="false"/>` +
			`<station name="Mainz Römisches Theater" eva="8000238" ds100="FMRT" db="true"/>` +
			`</stations>`))
	})
	s := newTestSource(t, server.URL, nil)

	stops, err := s.StopSearchQuery(context.Background(), query.StopSearch{Query: "Mainz"})

	require.NoError(t, err)
	require.Len(t, stops, 2)
	assert.Equal(t, "Mainz Hbf", stops[0].Name)
	assert.Equal(t, "Mainz Römisches Theater", stops[1].Name)
}

func TestBusStationTags(t *testing.T) {
	tests := []struct {
		station station
		tags    []string
	}{
		{station{Name: "Mainz Hbf", DB: "true"}, []string{"rail"}},
		{station{Name: "Mainz Hbf (Bus)", DB: "false"}, []string{"bus"}},
		{station{Name: "Wiesbaden Busbahnhof"}, []string{"bus"}},
		{station{Name: "Darmstadt Hbf/ZOB", DB: "true"}, []string{"rail", "bus"}},
		{station{Name: "Busenbach", DB: "true"}, []string{"rail"}},
	}

	for _, test := range tests {
		t.Run(test.station.Name, func(t *testing.T) {
			assert.Equal(t, test.tags, test.station.toStop().Tags)
		})
	}
}

func TestStationFilter(t *testing.T) {
	s := newTestSource(t, "http://127.0.0.1:1", nil)

	tests := []struct {
		name string
		stop ctdf.Stop
		keep bool
	}{
		{"bus only", ctdf.Stop{Identifier: "1", Tags: []string{"bus"}}, false},
		{"bus and rail", ctdf.Stop{Identifier: "2", Tags: []string{"bus", "rail"}}, true},
		{"untagged with identifier", ctdf.Stop{Identifier: "3"}, true},
		{"untagged with short code", ctdf.Stop{ShortCode: "FF"}, true},
		{"untagged without ids", ctdf.Stop{Name: "Nowhere"}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.keep, s.keep(&test.stop))
		})
	}
}

func TestCompileStationFilter(t *testing.T) {
	_, err := CompileStationFilter(`Name startsWith "M"`)
	assert.NoError(t, err)

	_, err = CompileStationFilter(`Name +`)
	assert.Error(t, err)

	_, err = CompileStationFilter(`Name`)
	assert.Error(t, err)
}
