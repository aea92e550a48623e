package events

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/metrics"
)

const DefaultBuffer = 16

// Broker fans change events out to in-process subscribers. Slow subscribers
// miss events rather than block publishers.
type Broker struct {
	mutex       sync.RWMutex
	subscribers map[uint64]chan ctdf.Event
	nextID      uint64

	relay   *Relay
	metrics *metrics.Collector
}

func NewBroker(collector *metrics.Collector) *Broker {
	return &Broker{
		subscribers: map[uint64]chan ctdf.Event{},
		metrics:     collector,
	}
}

// Subscribe returns the event channel and a function that removes the
// subscription and closes the channel
func (b *Broker) Subscribe(buffer int) (<-chan ctdf.Event, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	b.mutex.Lock()
	id := b.nextID
	b.nextID++
	channel := make(chan ctdf.Event, buffer)
	b.subscribers[id] = channel
	count := len(b.subscribers)
	b.mutex.Unlock()

	b.setSubscriberGauge(count)

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mutex.Lock()
			delete(b.subscribers, id)
			count := len(b.subscribers)
			close(channel)
			b.mutex.Unlock()

			b.setSubscriberGauge(count)
		})
	}

	return channel, unsubscribe
}

func (b *Broker) SubscriberCount() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	return len(b.subscribers)
}

// Publish delivers the event locally and forwards it to the relay if enabled
func (b *Broker) Publish(event ctdf.Event) {
	b.deliver(event)

	if b.metrics != nil {
		b.metrics.EventsPublished.Inc()
	}

	b.mutex.RLock()
	relay := b.relay
	b.mutex.RUnlock()

	if relay != nil {
		if err := relay.forward(event); err != nil {
			log.Error().Err(err).Str("type", string(event.Type)).Msg("Failed to relay event")
		}
	}
}

func (b *Broker) deliver(event ctdf.Event) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	for id, channel := range b.subscribers {
		select {
		case channel <- event:
		default:
			log.Debug().Uint64("subscriber", id).Str("type", string(event.Type)).Msg("Dropped event for slow subscriber")
		}
	}
}

func (b *Broker) setSubscriberGauge(count int) {
	if b.metrics != nil {
		b.metrics.EventSubscribers.Set(float64(count))
	}
}
