// Package jobs holds background loops.
package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/tuowzz/lazada-bot/internal/metrics"
	"github.com/tuowzz/lazada-bot/internal/token"
)

// Tokens is the token cell as seen by the refresher.
type Tokens interface {
	oauth2.TokenSource
	Refresh(ctx context.Context, fn token.RefreshFunc) (string, error)
}

// TokenRefresher renews the access token shortly before its known expiry so
// chat requests rarely hit the expired-token path. Tokens with no expiry
// (the one seeded from the environment) are left to the reactive refresh.
type TokenRefresher struct {
	tokens   Tokens
	refresh  token.RefreshFunc
	interval time.Duration
	lead     time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewTokenRefresher creates a refresher that checks every interval and renews
// tokens expiring within lead.
func NewTokenRefresher(tokens Tokens, refresh token.RefreshFunc, interval, lead time.Duration, logger *zap.Logger, m *metrics.Metrics) *TokenRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenRefresher{
		tokens:   tokens,
		refresh:  refresh,
		interval: interval,
		lead:     lead,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// Start runs the check loop until ctx is cancelled.
func (r *TokenRefresher) Start(ctx context.Context) {
	r.logger.Info("Token refresher started",
		zap.Duration("interval", r.interval),
		zap.Duration("lead", r.lead),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Token refresher stopped")
			return
		case <-ticker.C:
			r.check(ctx)
		}
	}
}

// check refreshes once if the current token is close to expiry. It reports
// whether a refresh was attempted.
func (r *TokenRefresher) check(ctx context.Context) bool {
	tok, err := r.tokens.Token()
	if err != nil || tok == nil || tok.Expiry.IsZero() {
		return false
	}
	if r.now().Add(r.lead).Before(tok.Expiry) {
		return false
	}

	_, err = r.tokens.Refresh(ctx, r.refresh)
	r.metrics.TokenRefresh(err == nil)
	if err != nil {
		r.logger.Warn("Proactive token refresh failed", zap.Time("expiry", tok.Expiry), zap.Error(err))
	}
	return true
}
