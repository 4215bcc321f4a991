package api

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/tuowzz/lazada-bot/internal/models"
	"github.com/tuowzz/lazada-bot/internal/validation"
)

// Resolver turns a keyword into a reply URL.
type Resolver interface {
	Resolve(ctx context.Context, keyword string) models.ResolutionResult
}

// ResolveHandler exposes the resolver as a JSON API for operators.
type ResolveHandler struct {
	resolver Resolver
}

// NewResolveHandler creates a new API resolve handler.
func NewResolveHandler(resolver Resolver) *ResolveHandler {
	return &ResolveHandler{resolver: resolver}
}

// Resolve runs the same resolution a chat message would trigger, without
// replying. The keyword comes from the path or the q query parameter.
func (h *ResolveHandler) Resolve(c fiber.Ctx) error {
	raw := c.Params("keyword")
	if raw == "" {
		raw = c.Query("q")
	}
	keyword := validation.NormalizeKeyword(raw)
	if keyword == "" {
		return jsonError(c, fiber.StatusBadRequest, "keyword is required")
	}

	mode, _ := validation.DetectLookupMode(keyword)
	return jsonResolved(c, models.ResolveResponse{
		Keyword:          keyword,
		LookupMode:       mode.String(),
		ResolutionResult: h.resolver.Resolve(c.Context(), keyword),
	})
}
