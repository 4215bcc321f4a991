// Package middleware holds fiber request guards.
package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/tuowzz/lazada-bot/internal/line"
)

// LineSignature rejects callbacks whose X-Line-Signature does not match the
// raw body. An empty channel secret disables the check.
func LineSignature(channelSecret string, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c fiber.Ctx) error {
		if channelSecret == "" {
			return c.Next()
		}
		if !line.VerifySignature(channelSecret, c.Body(), c.Get(line.SignatureHeader)) {
			logger.Warn("Rejected webhook with invalid signature", zap.String("ip", c.IP()))
			return fiber.NewError(fiber.StatusUnauthorized, "invalid signature")
		}
		return c.Next()
	}
}

// RequireBearer guards operator endpoints with a static bearer token.
func RequireBearer(token string) fiber.Handler {
	return func(c fiber.Ctx) error {
		got, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}
		return c.Next()
	}
}
