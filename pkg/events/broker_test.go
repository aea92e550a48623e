package events

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/metrics"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	broker := NewBroker(nil)

	first, unsubscribeFirst := broker.Subscribe(1)
	defer unsubscribeFirst()
	second, unsubscribeSecond := broker.Subscribe(1)
	defer unsubscribeSecond()

	event := ctdf.Event{Type: ctdf.EventTypeScheduleSaved, Timestamp: time.Now(), Body: ctdf.EventScheduleSaved{EntryCount: 3}}
	broker.Publish(event)

	for _, channel := range []<-chan ctdf.Event{first, second} {
		select {
		case received := <-channel:
			assert.Equal(t, ctdf.EventTypeScheduleSaved, received.Type)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	collector := metrics.NewCollector()
	broker := NewBroker(collector)

	channel, unsubscribe := broker.Subscribe(0)
	assert.Equal(t, 1, broker.SubscriberCount())
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.EventSubscribers))

	unsubscribe()
	unsubscribe()

	_, open := <-channel
	assert.False(t, open)
	assert.Equal(t, 0, broker.SubscriberCount())
	assert.Equal(t, float64(0), testutil.ToFloat64(collector.EventSubscribers))
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	broker := NewBroker(nil)

	channel, unsubscribe := broker.Subscribe(1)
	defer unsubscribe()

	broker.Publish(ctdf.Event{Type: ctdf.EventTypeFeedRefreshed})
	broker.Publish(ctdf.Event{Type: ctdf.EventTypeStationSelected})

	received := <-channel
	require.Equal(t, ctdf.EventTypeFeedRefreshed, received.Type)

	select {
	case <-channel:
		t.Fatal("second event should have been dropped")
	default:
	}
}
