package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rcamargo/postwing/internal/service"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := strconv.Atoi(c.Locals("user_id").(string))
	return int64(userID)
}

// serviceError maps known service failures onto HTTP statuses. Anything
// unrecognized is treated as an internal error.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case service.IsValidationError(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, service.ErrPostNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Post not found",
		})
	case errors.Is(err, service.ErrPostAlreadyPublished):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Published posts cannot be modified",
		})
	case errors.Is(err, service.ErrTwitterNotConnected):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "X account is not connected",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}
}
