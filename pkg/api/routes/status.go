package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/travigo/departureboard/pkg/board"
)

func Status(b *board.Board) fiber.Handler {
	return func(c *fiber.Ctx) error {
		response := fiber.Map{
			"version":     Version,
			"station":     b.Station(),
			"editSession": b.Session().Snapshot(),
			"subscribers": b.Events().SubscriberCount(),
		}
		if refreshedAt := b.RefreshedAt(); !refreshedAt.IsZero() {
			response["refreshedAt"] = refreshedAt
		}

		return c.JSON(response)
	}
}
