package board

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/ctdf"
)

// RunPoller refreshes on the poll interval and whenever a schedule or station
// change event arrives, and rotates the announcement carousel. It returns
// when ctx is done.
func (b *Board) RunPoller(ctx context.Context) {
	pollInterval := b.options.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	carouselInterval := b.options.CarouselInterval
	if carouselInterval <= 0 {
		carouselInterval = 8 * time.Second
	}

	pollTicker := time.NewTicker(pollInterval)
	defer pollTicker.Stop()
	carouselTicker := time.NewTicker(carouselInterval)
	defer carouselTicker.Stop()

	changes, unsubscribe := b.broker.Subscribe(0)
	defer unsubscribe()

	log.Info().Dur("poll", pollInterval).Dur("carousel", carouselInterval).Msg("Board poller started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			b.refreshLogged(ctx, "poll")
		case <-carouselTicker.C:
			b.AdvanceCarousel()
		case event, ok := <-changes:
			if !ok {
				return
			}
			if event.Type == ctdf.EventTypeScheduleSaved || event.Type == ctdf.EventTypeStationSelected {
				b.refreshLogged(ctx, string(event.Type))
			}
		}
	}
}

func (b *Board) refreshLogged(ctx context.Context, trigger string) {
	err := b.Refresh(ctx)

	switch {
	case err == nil:
	case errors.Is(err, ErrRefreshSuppressed):
		log.Debug().Str("trigger", trigger).Msg("Refresh held back while editing")
	default:
		log.Error().Err(err).Str("trigger", trigger).Msg("Refresh failed")
	}
}
