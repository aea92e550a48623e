package routes

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/departureboard/pkg/board"
	"github.com/travigo/departureboard/pkg/ctdf"
	"github.com/travigo/departureboard/pkg/util"
)

func StationsRouter(router fiber.Router, b *board.Board) {
	router.Get("/stations", func(c *fiber.Ctx) error {
		search := strings.TrimSpace(c.Query("q"))
		if search == "" {
			return sendBadRequest(c, "A search term must be given with q")
		}

		stops, err := b.SearchStations(search)
		if err != nil {
			return sendError(c, err)
		}

		return c.JSON(stops)
	})

	router.Get("/station", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"station": b.Station(),
		})
	})

	router.Post("/station", func(c *fiber.Ctx) error {
		var stop ctdf.Stop
		if err := json.Unmarshal(c.Body(), &stop); err != nil || stop.Identifier == "" {
			return sendBadRequest(c, "A station needs an identifier")
		}
		stop.Tags = util.NormaliseTags(stop.Tags)

		if err := b.SelectStation(c.UserContext(), &stop); err != nil {
			return sendError(c, err)
		}

		return c.JSON(fiber.Map{
			"station": b.Station(),
		})
	})

	router.Delete("/station", func(c *fiber.Ctx) error {
		if err := b.SelectStation(c.UserContext(), nil); err != nil {
			return sendError(c, err)
		}

		return c.SendStatus(fiber.StatusNoContent)
	})
}
