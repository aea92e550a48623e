package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	Refreshes       *prometheus.CounterVec // result label: ok|local_error|suppressed
	RefreshDuration prometheus.Histogram

	FeedFailures prometheus.Counter
	FeedEntries  prometheus.Gauge

	ScheduleSaves    *prometheus.CounterVec // action label
	EventSubscribers prometheus.Gauge
	EventsPublished  prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "departureboard_refreshes_total",
			Help: "Board refreshes by result.",
		}, []string{"result"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "departureboard_refresh_duration_seconds",
			Help:    "Duration of a board refresh including the feed fetch.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		FeedFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "departureboard_feed_failures_total",
			Help: "External feed fetches that failed and fell back to an empty list.",
		}),
		FeedEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "departureboard_feed_entries",
			Help: "Entries returned by the last external feed fetch.",
		}),
		ScheduleSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "departureboard_schedule_saves_total",
			Help: "Committed local schedule changes by action.",
		}, []string{"action"}),
		EventSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "departureboard_event_subscribers",
			Help: "Number of connected event stream subscribers.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "departureboard_events_published_total",
			Help: "Total change events published.",
		}),
	}

	reg.MustRegister(
		c.Refreshes, c.RefreshDuration,
		c.FeedFailures, c.FeedEntries,
		c.ScheduleSaves, c.EventSubscribers, c.EventsPublished,
	)

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }
