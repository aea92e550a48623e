package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/departureboard/pkg/board"
	"github.com/travigo/departureboard/pkg/dataaggregator"
	"github.com/travigo/departureboard/pkg/editsession"
	"github.com/travigo/departureboard/pkg/schedule"
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, schedule.ErrEntryNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, editsession.ErrEditInProgress), errors.Is(err, editsession.ErrNotEditing):
		return fiber.StatusConflict
	case errors.Is(err, board.ErrReadOnlyEntry):
		return fiber.StatusForbidden
	case errors.Is(err, board.ErrInvalidValue), errors.Is(err, board.ErrUnknownField):
		return fiber.StatusBadRequest
	case errors.Is(err, dataaggregator.ErrNoMatchingSource):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func sendError(c *fiber.Ctx, err error) error {
	c.Status(errorStatus(err))
	return c.JSON(fiber.Map{
		"error": err.Error(),
	})
}

func sendBadRequest(c *fiber.Ctx, message string) error {
	c.Status(fiber.StatusBadRequest)
	return c.JSON(fiber.Map{
		"error": message,
	})
}
