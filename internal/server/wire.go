package server

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/tuowzz/lazada-bot/internal/config"
	"github.com/tuowzz/lazada-bot/internal/db"
	"github.com/tuowzz/lazada-bot/internal/jobs"
	"github.com/tuowzz/lazada-bot/internal/lazada"
	"github.com/tuowzz/lazada-bot/internal/line"
	"github.com/tuowzz/lazada-bot/internal/metrics"
	"github.com/tuowzz/lazada-bot/internal/resolver"
	"github.com/tuowzz/lazada-bot/internal/signing"
	"github.com/tuowzz/lazada-bot/internal/token"
)

// Components are the long-lived collaborators behind the routes.
type Components struct {
	Resolver   *resolver.Resolver
	Dispatcher *line.Dispatcher
	Tokens     *token.Cell
	Refresher  *jobs.TokenRefresher
	Metrics    *metrics.Metrics
	Registry   *prometheus.Registry
	DB         *db.DB // nil when analytics are disabled
}

// Wire builds every component from cfg. Optional backends (Redis, Postgres)
// are only connected when configured.
func Wire(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Components, error) {
	if log == nil {
		log = zap.NewNop()
	}

	scheme, err := signing.ParseScheme(cfg.LazadaSignScheme)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	var database *db.DB
	var recorder *metrics.Recorder
	if cfg.AnalyticsEnabled() {
		database, err = db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			database.Close()
			return nil, err
		}
		recorder = metrics.NewRecorder(database, log)
		reg.MustRegister(metrics.NewKeywordCollector(database, log))
		log.Info("Keyword lookup analytics enabled")
	}

	var store token.Store
	if cfg.RedisURL != "" {
		store = token.NewRedisStore(cfg.RedisURL)
		log.Info("Sharing access token through Redis")
	}
	tokens := token.NewCell(&oauth2.Token{
		AccessToken:  cfg.LazadaAccessToken,
		RefreshToken: cfg.LazadaRefreshToken,
	}, store, log.Named("token"))

	client, err := lazada.NewClient(lazada.Config{
		APIURL:          cfg.LazadaAPIURL,
		AuthURL:         cfg.LazadaAuthURL,
		AppKey:          cfg.LazadaAppKey,
		AppSecret:       cfg.LazadaAppSecret,
		MarketingScheme: scheme,
	})
	if err != nil {
		if database != nil {
			database.Close()
		}
		return nil, fmt.Errorf("lazada client: %w", err)
	}

	res := resolver.New(client, tokens, resolver.Options{
		AffiliateID: cfg.LazadaAffiliateID,
		CampaignID:  cfg.LazadaCampaignID,
		CatalogURL:  cfg.CatalogSearchURL,
		Logger:      log.Named("resolver"),
		Metrics:     m,
		Recorder:    recorder,
	})

	interval := cfg.TokenCheckInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	refresher := jobs.NewTokenRefresher(tokens, client.RefreshToken, interval, cfg.TokenRefreshLead, log.Named("jobs"), m)

	dispatcher := line.NewDispatcher(line.Config{
		ReplyURL:    cfg.LineAPIURL,
		AccessToken: cfg.LineChannelAccessToken,
		Policy: line.RetryPolicy{
			MaxAttempts: cfg.ReplyMaxAttempts,
			BaseDelay:   cfg.ReplyBackoff,
			MaxDelay:    8 * cfg.ReplyBackoff,
		},
	}, log.Named("line"), m)

	return &Components{
		Resolver:   res,
		Dispatcher: dispatcher,
		Tokens:     tokens,
		Refresher:  refresher,
		Metrics:    m,
		Registry:   reg,
		DB:         database,
	}, nil
}

// Close releases backend connections.
func (c *Components) Close() {
	if c.DB != nil {
		c.DB.Close()
	}
}
