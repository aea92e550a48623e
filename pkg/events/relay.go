package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/ctdf"
)

const RelayChannel = "departureboard-events"

type relayMessage struct {
	Origin string
	Event  ctdf.Event
}

// Relay shares events between board instances over redis pub/sub. Messages
// from this instance are ignored when they come back.
type Relay struct {
	client *redis.Client
	origin string
	ctx    context.Context
}

// EnableRedisRelay subscribes to the relay channel until ctx is done
func (b *Broker) EnableRedisRelay(ctx context.Context, client *redis.Client) error {
	relay := &Relay{
		client: client,
		origin: uuid.NewString(),
		ctx:    ctx,
	}

	pubsub := client.Subscribe(ctx, RelayChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return err
	}

	b.mutex.Lock()
	b.relay = relay
	b.mutex.Unlock()

	go func() {
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case message, ok := <-messages:
				if !ok {
					return
				}

				var decoded relayMessage
				if err := json.Unmarshal([]byte(message.Payload), &decoded); err != nil {
					log.Error().Err(err).Msg("Failed to decode relayed event")
					continue
				}
				if decoded.Origin == relay.origin {
					continue
				}

				log.Debug().Str("type", string(decoded.Event.Type)).Str("origin", decoded.Origin).Msg("Received relayed event")
				b.deliver(decoded.Event)
			}
		}
	}()

	log.Info().Str("channel", RelayChannel).Msg("Event relay enabled")

	return nil
}

func (r *Relay) forward(event ctdf.Event) error {
	payload, err := json.Marshal(relayMessage{Origin: r.origin, Event: event})
	if err != nil {
		return err
	}

	return r.client.Publish(r.ctx, RelayChannel, payload).Err()
}
