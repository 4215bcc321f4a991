package handlers

import "github.com/gofiber/fiber/v3"

// HomeMessage confirms the bot is up.
const HomeMessage = "🚀 บอท Lazada + LINE พร้อมใช้งาน!"

// Home handles GET /.
func Home(c fiber.Ctx) error {
	return c.SendString(HomeMessage)
}
