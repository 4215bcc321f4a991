package api

import (
	"github.com/gofiber/fiber/v3"

	"github.com/tuowzz/lazada-bot/internal/models"
)

// jsonResolved returns a 200 response carrying a resolution.
func jsonResolved(c fiber.Ctx, resp models.ResolveResponse) error {
	return c.JSON(models.OK(resp))
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(models.Failure(message))
}
