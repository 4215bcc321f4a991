// Package token owns the process-wide Lazada access token.
package token

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ErrNoRefreshToken is returned when a refresh is needed but none is configured.
var ErrNoRefreshToken = errors.New("token: no refresh token configured")

// State is the access token lifecycle state.
type State int

const (
	Valid State = iota
	Refreshing
	Invalid
)

func (s State) String() string {
	switch s {
	case Refreshing:
		return "refreshing"
	case Invalid:
		return "invalid"
	default:
		return "valid"
	}
}

// RefreshFunc exchanges a refresh token for a new token.
type RefreshFunc func(ctx context.Context, refreshToken string) (*oauth2.Token, error)

// Cell holds the latest installed token. Readers always see the most recent
// install; concurrent refreshes are last-write-wins.
type Cell struct {
	mu    sync.RWMutex
	tok   *oauth2.Token
	state State

	store  Store
	logger *zap.Logger
}

// NewCell creates a cell seeded with initial. store may be nil.
func NewCell(initial *oauth2.Token, store Store, logger *zap.Logger) *Cell {
	if initial == nil {
		initial = &oauth2.Token{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cell{tok: initial, state: Valid, store: store, logger: logger}
}

// Token implements oauth2.TokenSource. It adopts a token from the shared store
// only when it expires later than the local one, so a refresh done by another
// replica is picked up and a stale shared token never replaces a fresh one.
func (c *Cell) Token() (*oauth2.Token, error) {
	return c.current(context.Background()), nil
}

// AccessToken returns the access token to send on the next call.
func (c *Cell) AccessToken(ctx context.Context) string {
	return c.current(ctx).AccessToken
}

// State returns the lifecycle state.
func (c *Cell) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Cell) current(ctx context.Context) *oauth2.Token {
	if c.store != nil {
		shared, err := c.store.Load(ctx)
		if err != nil {
			c.logger.Warn("Failed to load shared access token", zap.Error(err))
		} else if shared != nil && shared.AccessToken != "" {
			c.mu.Lock()
			if newer(shared, c.tok) {
				c.tok = shared
				if c.state == Invalid {
					c.state = Valid
				}
			}
			c.mu.Unlock()
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	tok := *c.tok
	return &tok
}

// newer reports whether shared was issued after local. A shared token that
// failed to replace a local install is never newer than it.
func newer(shared, local *oauth2.Token) bool {
	if shared.AccessToken == local.AccessToken || shared.Expiry.IsZero() {
		return false
	}
	return shared.Expiry.After(local.Expiry)
}

// Install replaces the token and marks the cell valid.
func (c *Cell) Install(ctx context.Context, tok *oauth2.Token) {
	c.mu.Lock()
	c.tok = tok
	c.state = Valid
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Save(ctx, tok); err != nil {
			c.logger.Warn("Failed to share refreshed access token", zap.Error(err))
		}
	}
}

// Refresh runs one refresh round trip through fn. On success the new token is
// installed and its access token returned. On failure the cell is marked
// invalid and keeps the last token; the next expiry signal may refresh again.
func (c *Cell) Refresh(ctx context.Context, fn RefreshFunc) (string, error) {
	c.mu.Lock()
	refreshToken := c.tok.RefreshToken
	c.state = Refreshing
	c.mu.Unlock()

	if refreshToken == "" {
		c.markInvalid()
		return "", ErrNoRefreshToken
	}

	tok, err := fn(ctx, refreshToken)
	if err != nil {
		c.markInvalid()
		return "", fmt.Errorf("token: refresh: %w", err)
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}

	c.Install(ctx, tok)
	c.logger.Info("Access token refreshed", zap.Time("expiry", tok.Expiry))
	return tok.AccessToken, nil
}

func (c *Cell) markInvalid() {
	c.mu.Lock()
	c.state = Invalid
	c.mu.Unlock()
}
