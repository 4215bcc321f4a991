package handlers

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tuowzz/lazada-bot/internal/line"
	"github.com/tuowzz/lazada-bot/internal/metrics"
	"github.com/tuowzz/lazada-bot/internal/models"
	"github.com/tuowzz/lazada-bot/internal/validation"
)

// Resolver turns a keyword into a reply URL. It never fails.
type Resolver interface {
	Resolve(ctx context.Context, keyword string) models.ResolutionResult
}

// Replier delivers text to a reply token.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) (*line.Delivery, error)
}

// WebhookHandler handles LINE callbacks.
type WebhookHandler struct {
	resolver  Resolver
	replier   Replier
	formatter *ReplyFormatter
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(resolver Resolver, replier Replier, formatter *ReplyFormatter, logger *zap.Logger, m *metrics.Metrics) *WebhookHandler {
	if formatter == nil {
		formatter = NewReplyFormatter("", "")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		resolver:  resolver,
		replier:   replier,
		formatter: formatter,
		logger:    logger,
		metrics:   m,
	}
}

// Handle processes the first event of a callback. Once the payload is
// structurally valid the answer is 200 whatever happens downstream; reply
// failures are logged only.
func (h *WebhookHandler) Handle(c fiber.Ctx) error {
	log := h.logger.With(zap.String("event_id", uuid.NewString()))

	var payload models.WebhookPayload
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		h.metrics.WebhookEvent("invalid")
		log.Warn("Rejected malformed webhook payload", zap.Error(err))
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON payload")
	}
	if len(payload.Events) == 0 {
		h.metrics.WebhookEvent("invalid")
		log.Warn("Rejected webhook payload without events")
		return jsonError(c, fiber.StatusBadRequest, "events must not be empty")
	}

	event := payload.Events[0]
	if !event.IsText() {
		h.metrics.WebhookEvent("ignored")
		log.Debug("Ignoring non-text event", zap.String("type", event.Type))
		return jsonOK(c)
	}
	h.metrics.WebhookEvent("text")

	log = log.With(zap.String("user_id", event.Source.UserID))
	keyword := validation.NormalizeKeyword(event.Message.Text)
	result := h.resolver.Resolve(c.Context(), keyword)

	delivery, err := h.replier.Reply(c.Context(), event.ReplyToken, h.formatter.Format(keyword, result))
	if err != nil {
		attempts := 0
		if delivery != nil {
			attempts = delivery.Attempts
		}
		log.Error("Failed to deliver reply",
			zap.String("outcome", result.Outcome),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return jsonOK(c)
	}

	log.Info("Reply delivered",
		zap.String("outcome", result.Outcome),
		zap.Bool("degraded", result.Degraded),
		zap.Int("attempts", delivery.Attempts),
	)
	return jsonOK(c)
}
