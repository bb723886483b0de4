package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// ValidateID checks that the :id route parameter is a positive integer.
// Anything else cannot name a song, so it is reported as not found.
func ValidateID(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id < 1 {
		return fiber.ErrNotFound
	}
	c.Locals(localSongID, id)
	return c.Next()
}
