package routes

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/events"
	"github.com/valyala/fasthttp"
)

const keepaliveInterval = 15 * time.Second

// EventsStream sends change events as Server-Sent Events until the client
// goes away
func EventsStream(broker *events.Broker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		changes, unsubscribe := broker.Subscribe(0)

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer unsubscribe()

			keepalive := time.NewTicker(keepaliveInterval)
			defer keepalive.Stop()

			fmt.Fprint(w, "retry: 5000\n\n")
			if err := w.Flush(); err != nil {
				return
			}

			for {
				select {
				case event, ok := <-changes:
					if !ok {
						return
					}
					if err := WriteEvent(w, event); err != nil {
						log.Error().Err(err).Msg("Failed to encode event")
						continue
					}
				case <-keepalive.C:
					fmt.Fprint(w, ": keepalive\n\n")
				}

				if err := w.Flush(); err != nil {
					log.Debug().Err(err).Msg("Event stream client went away")
					return
				}
			}
		}))

		return nil
	}
}

func WriteEvent(w io.Writer, event ctdf.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
	return err
}
