package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tuowzz/lazada-bot/internal/handlers"
	"github.com/tuowzz/lazada-bot/internal/handlers/api"
	"github.com/tuowzz/lazada-bot/internal/middleware"
)

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(c *Components) {
	formatter := handlers.NewReplyFormatter(s.Cfg.MatchedTemplate, s.Cfg.DegradedTemplate)
	webhookHandler := handlers.NewWebhookHandler(c.Resolver, c.Dispatcher, formatter, s.Logger.Named("webhook"), c.Metrics)

	var pinger handlers.Pinger
	if c.DB != nil {
		pinger = c.DB
	}
	probeHandler := handlers.NewProbeHandler(pinger)

	s.App.Get("/", handlers.Home)
	s.App.Post("/webhook", middleware.LineSignature(s.Cfg.LineChannelSecret, s.Logger), webhookHandler.Handle)

	// Kubernetes probes and metrics
	s.App.Get("/healthz", probeHandler.Liveness)
	s.App.Get("/readyz", probeHandler.Readiness)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})))

	// Operator API, only mounted when a token is configured
	if s.Cfg.APIToken != "" {
		resolveHandler := api.NewResolveHandler(c.Resolver)
		ops := s.App.Group("/api", middleware.RequireBearer(s.Cfg.APIToken))
		ops.Get("/resolve", resolveHandler.Resolve)
		ops.Get("/resolve/:keyword", resolveHandler.Resolve)
	}
}
