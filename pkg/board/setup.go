package board

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/changelog"
	"github.com/travigo/departureboard/pkg/config"
	"github.com/travigo/departureboard/pkg/dataaggregator"
	"github.com/travigo/departureboard/pkg/dataaggregator/source/cachedresults"
	"github.com/travigo/departureboard/pkg/dataaggregator/source/localschedule"
	"github.com/travigo/departureboard/pkg/dataaggregator/source/timetables"
	"github.com/travigo/departureboard/pkg/departureboard"
	"github.com/travigo/departureboard/pkg/editsession"
	"github.com/travigo/departureboard/pkg/events"
	"github.com/travigo/departureboard/pkg/localstore"
	"github.com/travigo/departureboard/pkg/metrics"
	"github.com/travigo/departureboard/pkg/redis_client"
)

const feedCachePrefix = "departureboard:timetables:"

// Setup wires a board from configuration. redis_client.Connect must have run
// first so the feed cache, change log queue and event relay can use redis.
func Setup(ctx context.Context, cfg config.Config, collector *metrics.Collector) (*Board, error) {
	store := localstore.New(cfg.DataDirectory, changelog.NewLogger(cfg))

	aggregator := &dataaggregator.Aggregator{}
	aggregator.RegisterSource(localschedule.New(ctx, store))

	if cfg.Feed.BaseURL != "" {
		feed, err := timetables.New(ctx, timetables.Options{
			BaseURL:        cfg.Feed.BaseURL,
			ClientID:       cfg.Feed.ClientID,
			APIKey:         cfg.Feed.APIKey,
			Timeout:        cfg.Feed.Timeout,
			LookaheadHours: cfg.Feed.LookaheadHours,
			Location:       cfg.Location(),
			StationFilter:  cfg.StationFilter,
			Cache:          cachedresults.New(redis_client.Client, feedCachePrefix, cfg.Feed.CacheTTL),
		})
		if err != nil {
			return nil, err
		}
		aggregator.RegisterSource(feed)
	} else {
		log.Info().Msg("No feed base URL configured, station selection is unavailable")
	}

	broker := events.NewBroker(collector)
	if redis_client.Enabled() {
		if err := broker.EnableRedisRelay(ctx, redis_client.Client); err != nil {
			log.Warn().Err(err).Msg("Failed to enable event relay")
		}
	}

	return New(aggregator, store, editsession.New(cfg.EditTimeout), broker, collector, Options{
		WindowDays:       cfg.WindowDays,
		PollInterval:     cfg.PollInterval,
		CarouselInterval: cfg.CarouselInterval,
		Location:         cfg.Location(),
		Departure: departureboard.Options{
			ExtraServicePrefix: cfg.ExtraServicePrefix,
		},
	}), nil
}
