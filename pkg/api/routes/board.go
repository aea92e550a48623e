package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/travigo/departureboard/pkg/board"
	"github.com/travigo/departureboard/pkg/departureboard"
)

func BoardRouter(router fiber.Router, b *board.Board) {
	router.Get("/board", func(c *fiber.Ctx) error {
		groups := []string{"basic"}
		if c.Query("detail") == "full" {
			groups = append(groups, "full")
		}

		boardReduced, err := sheriff.Marshal(&sheriff.Options{
			Groups: groups,
		}, b.Board(b.Now()))

		if err != nil {
			c.SendStatus(fiber.StatusInternalServerError)
			return c.JSON(fiber.Map{
				"error": "Sheriff could not reduce Board",
			})
		}

		return c.JSON(boardReduced)
	})

	router.Get("/board.csv", func(c *fiber.Ctx) error {
		csv, err := departureboard.ExportCSV(b.Board(b.Now()))
		if err != nil {
			return sendError(c, err)
		}

		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="departures.csv"`)
		return c.Send(csv)
	})

	router.Get("/announcements", func(c *fiber.Ctx) error {
		return c.JSON(b.Announcements(b.Now(), c.QueryInt("page", 0)))
	})
}
