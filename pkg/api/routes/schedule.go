package routes

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/departureboard/pkg/board"
	"github.com/travigo/departureboard/pkg/schedule"
)

func ScheduleRouter(router fiber.Router, b *board.Board) {
	router.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(b.Document())
	})

	router.Put("/", func(c *fiber.Ctx) error {
		var document schedule.Document
		if err := json.Unmarshal(c.Body(), &document); err != nil {
			return sendBadRequest(c, "Schedule document could not be parsed")
		}

		if err := b.ReplaceDocument(c.UserContext(), document); err != nil {
			return sendError(c, err)
		}

		return c.JSON(b.Document())
	})
}
