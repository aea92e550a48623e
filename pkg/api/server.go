package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/travigo/departureboard/pkg/api/routes"
	"github.com/travigo/departureboard/pkg/board"
	"github.com/travigo/departureboard/pkg/metrics"
)

func NewApp(b *board.Board, collector *metrics.Collector, webDirectory string) *fiber.App {
	// Immutable: ids from route params outlive the request in the edit
	// session, the change log and published events
	webApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		Immutable:             true,
	})
	webApp.Use(NewLogger())

	group := webApp.Group("/api")

	group.Get("/version", routes.APIVersion)
	group.Get("/status", routes.Status(b))

	routes.ScheduleRouter(group.Group("/schedule"), b)
	routes.EntriesRouter(group.Group("/entries"), b)
	group.Get("/edit-session", routes.EditSession(b))

	routes.BoardRouter(group, b)
	routes.StationsRouter(group, b)

	group.Get("/events", routes.EventsStream(b.Events()))

	if collector != nil {
		webApp.Get("/metrics", adaptor.HTTPHandler(collector.Handler()))
	}

	if webDirectory != "" {
		webApp.Static("/", webDirectory)
	}

	return webApp
}

func SetupServer(listen string, b *board.Board, collector *metrics.Collector, webDirectory string) error {
	return NewApp(b, collector, webDirectory).Listen(listen)
}
