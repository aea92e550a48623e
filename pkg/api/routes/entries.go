package routes

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/departureboard/pkg/board"
	"github.com/travigo/departureboard/pkg/ctdf"
)

type editRequest struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// text turns a JSON scalar into the string form the board's edit takes
func (r editRequest) text() string {
	var value string
	if err := json.Unmarshal(r.Value, &value); err == nil {
		return value
	}

	var lines []string
	if err := json.Unmarshal(r.Value, &lines); err == nil {
		return strings.Join(lines, "\n")
	}

	if string(r.Value) == "null" {
		return ""
	}

	return string(r.Value)
}

func EntriesRouter(router fiber.Router, b *board.Board) {
	router.Post("/", func(c *fiber.Ctx) error {
		var entry ctdf.Entry
		if err := json.Unmarshal(c.Body(), &entry); err != nil {
			return sendBadRequest(c, "Entry could not be parsed")
		}

		added, err := b.AddEntry(c.UserContext(), entry)
		if err != nil {
			return sendError(c, err)
		}

		c.Status(fiber.StatusCreated)
		return c.JSON(added)
	})

	router.Delete("/:id", func(c *fiber.Ctx) error {
		if err := b.DeleteEntry(c.UserContext(), c.Params("id")); err != nil {
			return sendError(c, err)
		}

		return c.SendStatus(fiber.StatusNoContent)
	})

	router.Post("/:id/edit", func(c *fiber.Ctx) error {
		var request editRequest
		if err := json.Unmarshal(c.Body(), &request); err != nil || request.Field == "" {
			return sendBadRequest(c, "An edit needs a field")
		}

		if err := b.BeginEdit(c.Params("id"), request.Field); err != nil {
			return sendError(c, err)
		}

		return c.JSON(b.Session().Snapshot())
	})

	router.Post("/:id/edit/cancel", func(c *fiber.Ctx) error {
		if err := b.CancelEdit(c.Params("id")); err != nil {
			return sendError(c, err)
		}

		return c.SendStatus(fiber.StatusNoContent)
	})

	router.Patch("/:id", func(c *fiber.Ctx) error {
		var request editRequest
		if err := json.Unmarshal(c.Body(), &request); err != nil || request.Field == "" {
			return sendBadRequest(c, "An edit needs a field and a value")
		}

		edited, err := b.ApplyEdit(c.UserContext(), c.Params("id"), request.Field, request.text())
		if err != nil {
			return sendError(c, err)
		}

		return c.JSON(edited)
	})
}

func EditSession(b *board.Board) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(b.Session().Snapshot())
	}
}
