package timetables

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/dataaggregator/query"
	"github.com/travigo/departureboard/pkg/dataaggregator/source"
	"github.com/travigo/departureboard/pkg/dataaggregator/source/cachedresults"
)

// Source talks to a DB-style timetables API: hourly plans, full change sets
// and the station directory
type Source struct {
	BaseURL  string
	ClientID string
	APIKey   string

	LookaheadHours int
	Location       *time.Location
	RetryInterval  time.Duration

	HTTPClient *http.Client
	Cache      *cachedresults.Cache

	stationFilter *vm.Program
	ctx           context.Context
}

type Options struct {
	BaseURL        string
	ClientID       string
	APIKey         string
	Timeout        time.Duration
	LookaheadHours int
	Location       *time.Location
	StationFilter  string
	Cache          *cachedresults.Cache
}

func New(ctx context.Context, options Options) (*Source, error) {
	filter, err := CompileStationFilter(options.StationFilter)
	if err != nil {
		return nil, err
	}

	location := options.Location
	if location == nil {
		location = time.Local
	}

	lookahead := options.LookaheadHours
	if lookahead <= 0 {
		lookahead = 2
	}

	return &Source{
		BaseURL:        strings.TrimRight(options.BaseURL, "/"),
		ClientID:       options.ClientID,
		APIKey:         options.APIKey,
		LookaheadHours: lookahead,
		Location:       location,
		RetryInterval:  500 * time.Millisecond,
		HTTPClient:     &http.Client{Timeout: options.Timeout},
		Cache:          options.Cache,
		stationFilter:  filter,
		ctx:            ctx,
	}, nil
}

func (s *Source) GetName() string {
	return "DB Timetables API"
}

func (s *Source) Supports() []reflect.Type {
	return []reflect.Type{
		reflect.TypeOf([]ctdf.Entry{}),
		reflect.TypeOf([]*ctdf.Stop{}),
	}
}

func (s *Source) Lookup(q any) (interface{}, error) {
	switch q := q.(type) {
	case query.Departures:
		return s.DeparturesQuery(s.context(), q)
	case query.StopSearch:
		return s.StopSearchQuery(s.context(), q)
	default:
		return nil, source.UnsupportedSourceError
	}
}

func (s *Source) context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

type statusError struct {
	StatusCode int
	Path       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("timetables request %s returned status %d", e.Path, e.StatusCode)
}

// get fetches path below BaseURL, going through the cache and retrying once
// on transport errors and 5xx responses
func (s *Source) get(ctx context.Context, path string, cacheable bool) (string, error) {
	if cacheable {
		if cached, found := s.Cache.Get(ctx, path); found {
			return cached, nil
		}
	}

	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.InitialInterval = s.RetryInterval

	body, err := backoff.RetryWithData(func() (string, error) {
		return s.request(ctx, path)
	}, backoff.WithContext(backoff.WithMaxRetries(retryBackoff, 1), ctx))
	if err != nil {
		return "", err
	}

	if cacheable {
		s.Cache.Set(ctx, path, body)
	}

	return body, nil
}

func (s *Source) request(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+path, nil)
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/xml")
	if s.ClientID != "" {
		req.Header.Set("DB-Client-Id", s.ClientID)
	}
	if s.APIKey != "" {
		req.Header.Set("DB-Api-Key", s.APIKey)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("Timetables request failed")
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", backoff.Permanent(errNotFound)
	}
	if resp.StatusCode >= 500 {
		return "", &statusError{StatusCode: resp.StatusCode, Path: path}
	}
	if resp.StatusCode >= 300 {
		return "", backoff.Permanent(&statusError{StatusCode: resp.StatusCode, Path: path})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

var errNotFound = errors.New("timetables resource not found")

func escapePath(value string) string {
	return url.PathEscape(value)
}
