package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/departureboard/pkg/changelog"
	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/dataaggregator"
	"github.com/travigo/departureboard/pkg/dataaggregator/query"
	"github.com/travigo/departureboard/pkg/departureboard"
	"github.com/travigo/departureboard/pkg/editsession"
	"github.com/travigo/departureboard/pkg/events"
	"github.com/travigo/departureboard/pkg/metrics"
	"github.com/travigo/departureboard/pkg/schedule"
)

var ErrRefreshSuppressed = errors.New("refresh suppressed while an edit is in progress")

// Store persists the local schedule and the selected stop
type Store interface {
	Save(ctx context.Context, document schedule.Document, record changelog.Record) error
	LoadStation(ctx context.Context) (*ctdf.Stop, error)
	SaveStation(ctx context.Context, stop *ctdf.Stop) error
}

type Options struct {
	WindowDays       int
	PollInterval     time.Duration
	CarouselInterval time.Duration
	Location         *time.Location
	Departure        departureboard.Options
}

// Board owns the in-memory model. All reads and writes go through its
// methods and every committed change is saved before it becomes visible.
type Board struct {
	mutex sync.RWMutex

	// commitMutex serialises document changes from clone to swap
	commitMutex sync.Mutex
	// generation counts committed documents so a refresh that read the file
	// before a commit does not replace the newer model
	generation uint64

	aggregator *dataaggregator.Aggregator
	store      Store
	session    *editsession.Session
	broker     *events.Broker
	metrics    *metrics.Collector
	options    Options

	document    schedule.Document
	external    []ctdf.Entry
	station     *ctdf.Stop
	carousel    departureboard.Carousel
	refreshedAt time.Time

	now func() time.Time
}

func New(aggregator *dataaggregator.Aggregator, store Store, session *editsession.Session, broker *events.Broker, collector *metrics.Collector, options Options) *Board {
	if options.Location == nil {
		options.Location = time.Local
	}
	if options.WindowDays <= 0 {
		options.WindowDays = schedule.DefaultWindowDays
	}
	if session == nil {
		session = editsession.New(0)
	}
	if broker == nil {
		broker = events.NewBroker(collector)
	}

	return &Board{
		aggregator: aggregator,
		store:      store,
		session:    session,
		broker:     broker,
		metrics:    collector,
		options:    options,
		document:   schedule.Document{Recurring: []ctdf.Entry{}, OneOff: []ctdf.Entry{}},
		external:   []ctdf.Entry{},
		now:        time.Now,
	}
}

func (b *Board) Now() time.Time {
	return b.now().In(b.options.Location)
}

func (b *Board) Session() *editsession.Session {
	return b.session
}

func (b *Board) Events() *events.Broker {
	return b.broker
}

// Start restores the selected stop and performs the initial refresh
func (b *Board) Start(ctx context.Context) error {
	station, err := b.store.LoadStation(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to restore selected station")
	}

	b.mutex.Lock()
	b.station = station
	b.mutex.Unlock()

	return b.Refresh(ctx)
}

// Refresh reloads the local schedule and the external feed concurrently. A
// failed feed becomes an empty list, a failed local load keeps the previous
// model and is returned.
func (b *Board) Refresh(ctx context.Context) error {
	if !b.session.RefreshAllowed() {
		b.countRefresh("suppressed")
		return ErrRefreshSuppressed
	}

	start := time.Now()
	now := b.Now()

	b.mutex.RLock()
	station := b.station
	generation := b.generation
	b.mutex.RUnlock()

	var document schedule.Document
	var localErr error
	external := []ctdf.Entry{}

	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		document, localErr = dataaggregator.Lookup[schedule.Document](b.aggregator, query.Schedule{})
		return nil
	})
	if station != nil {
		p.Go(func(ctx context.Context) error {
			entries, err := dataaggregator.Lookup[[]ctdf.Entry](b.aggregator, query.Departures{Stop: station, Now: now})
			if err != nil {
				log.Warn().Err(err).Str("station", station.Identifier).Msg("External feed unavailable, showing no feed entries")
				if b.metrics != nil {
					b.metrics.FeedFailures.Inc()
				}
				return nil
			}

			external = entries
			return nil
		})
	}
	_ = p.Wait()

	if b.metrics != nil {
		b.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	}

	if localErr != nil {
		b.countRefresh("local_error")
		return fmt.Errorf("loading local schedule: %w", localErr)
	}

	// an edit may have started while the fetch was in flight
	if !b.session.RefreshAllowed() {
		b.countRefresh("suppressed")
		return ErrRefreshSuppressed
	}

	b.mutex.Lock()
	if b.generation == generation {
		b.document = document
	} else {
		log.Debug().Msg("Schedule committed during refresh, keeping the committed document")
	}
	if b.station == station {
		b.external = external
	}
	b.refreshedAt = now
	b.mutex.Unlock()

	if b.metrics != nil {
		b.metrics.FeedEntries.Set(float64(len(external)))
	}
	b.countRefresh("ok")

	log.Debug().Int("local", document.Len()).Int("external", len(external)).Msg("Board refreshed")

	return nil
}

func (b *Board) countRefresh(result string) {
	if b.metrics != nil {
		b.metrics.Refreshes.WithLabelValues(result).Inc()
	}
}

// Normalized is the normalised entry set at now
func (b *Board) Normalized(now time.Time) schedule.NormalizedSet {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	return b.normalized(now)
}

func (b *Board) normalized(now time.Time) schedule.NormalizedSet {
	return schedule.Normalize(b.document, b.external, b.station != nil, now, b.options.WindowDays)
}

// Board builds the projection read by every surface. The announcement page
// shown is the carousel's current page.
func (b *Board) Board(now time.Time) departureboard.Board {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return departureboard.Build(b.normalized(now), b.station, now, &b.carousel, b.options.Departure)
}

// Announcements returns a specific announcement page without moving the carousel
func (b *Board) Announcements(now time.Time, page int) departureboard.Page {
	set := b.Normalized(now)
	classification := departureboard.Classify(set.Display, set.Local, now)

	return departureboard.Paginate(departureboard.CompileAnnouncements(classification, now, b.options.Departure), page)
}

func (b *Board) AdvanceCarousel() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.carousel.Advance()
}

// Document returns a copy of the committed local schedule
func (b *Board) Document() schedule.Document {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	return b.document.Clone()
}

func (b *Board) Station() *ctdf.Stop {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	if b.station == nil {
		return nil
	}
	station := *b.station
	return &station
}

func (b *Board) RefreshedAt() time.Time {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	return b.refreshedAt
}

// SearchStations queries the stop directory
func (b *Board) SearchStations(search string) ([]*ctdf.Stop, error) {
	return dataaggregator.Lookup[[]*ctdf.Stop](b.aggregator, query.StopSearch{Query: search})
}

// SelectStation switches the board to the feed of stop, nil goes back to the
// local schedule only
func (b *Board) SelectStation(ctx context.Context, stop *ctdf.Stop) error {
	if err := b.store.SaveStation(ctx, stop); err != nil {
		return err
	}

	b.mutex.Lock()
	b.station = stop
	b.external = []ctdf.Entry{}
	b.mutex.Unlock()

	identifier := ""
	if stop != nil {
		identifier = stop.Identifier
	}
	log.Info().Str("station", identifier).Msg("Station selected")

	b.publish(ctdf.EventTypeStationSelected, stop)

	if err := b.Refresh(ctx); err != nil && !errors.Is(err, ErrRefreshSuppressed) {
		return err
	}

	return nil
}

func (b *Board) publish(eventType ctdf.EventType, body any) {
	b.broker.Publish(ctdf.Event{
		Type:      eventType,
		Timestamp: b.now(),
		Body:      body,
	})
}
