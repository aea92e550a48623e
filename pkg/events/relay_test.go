package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/departureboard/pkg/ctdf"
)

func TestRedisRelayBetweenInstances(t *testing.T) {
	server := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newClient := func() *redis.Client {
		client := redis.NewClient(&redis.Options{Addr: server.Addr()})
		t.Cleanup(func() { client.Close() })
		return client
	}

	origin := NewBroker(nil)
	require.NoError(t, origin.EnableRedisRelay(ctx, newClient()))
	remote := NewBroker(nil)
	require.NoError(t, remote.EnableRedisRelay(ctx, newClient()))

	local, unsubscribeLocal := origin.Subscribe(4)
	defer unsubscribeLocal()
	relayed, unsubscribeRelayed := remote.Subscribe(4)
	defer unsubscribeRelayed()

	origin.Publish(ctdf.Event{Type: ctdf.EventTypeStationSelected, Timestamp: time.Now()})

	select {
	case event := <-relayed:
		assert.Equal(t, ctdf.EventTypeStationSelected, event.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not relayed")
	}

	select {
	case event := <-local:
		assert.Equal(t, ctdf.EventTypeStationSelected, event.Type)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered locally")
	}

	// the origin ignores its own message coming back from redis
	select {
	case event := <-local:
		t.Fatalf("unexpected duplicate %s", event.Type)
	case <-time.After(200 * time.Millisecond):
	}
}
