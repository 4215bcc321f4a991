// Package line talks to the LINE Messaging API.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/tuowzz/lazada-bot/internal/metrics"
)

// DefaultReplyURL is the reply endpoint.
const DefaultReplyURL = "https://api.line.me/v2/bot/message/reply"

// MaxTextLength is the longest text message the platform accepts.
const MaxTextLength = 5000

// ErrEmptyReplyToken is returned when there is nothing to reply to.
var ErrEmptyReplyToken = errors.New("line: reply token is empty")

// StatusError is a non-2xx answer from the reply API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("line: reply returned status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// RetryPolicy bounds reply attempts. Delay doubles after every failed attempt,
// capped at MaxDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy is three attempts starting at 500ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 4 * time.Second}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && (d > p.MaxDelay || d <= 0) {
		d = p.MaxDelay
	}
	return d
}

// Config configures a Dispatcher.
type Config struct {
	ReplyURL    string
	AccessToken string
	Timeout     time.Duration
	Policy      RetryPolicy
	HTTPClient  *http.Client
}

// Dispatcher sends replies to single-use reply tokens.
type Dispatcher struct {
	replyURL    string
	accessToken string
	policy      RetryPolicy
	client      *http.Client
	logger      *zap.Logger
	metrics     *metrics.Metrics
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg Config, logger *zap.Logger, m *metrics.Metrics) *Dispatcher {
	if cfg.ReplyURL == "" {
		cfg.ReplyURL = DefaultReplyURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Policy.MaxAttempts <= 0 {
		cfg.Policy = DefaultRetryPolicy()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		replyURL:    cfg.ReplyURL,
		accessToken: cfg.AccessToken,
		policy:      cfg.Policy,
		client:      client,
		logger:      logger,
		metrics:     m,
		sleep:       sleepContext,
	}
}

// Delivery describes a finished dispatch.
type Delivery struct {
	Attempts   int
	StatusCode int
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []textMessage `json:"messages"`
}

// Truncate cuts text to MaxTextLength characters.
func Truncate(text string) string {
	if utf8.RuneCountInString(text) <= MaxTextLength {
		return text
	}
	return string([]rune(text)[:MaxTextLength])
}

// Reply sends text to replyToken, retrying transient failures per the policy.
func (d *Dispatcher) Reply(ctx context.Context, replyToken, text string) (*Delivery, error) {
	if replyToken == "" {
		return &Delivery{}, ErrEmptyReplyToken
	}

	body, err := json.Marshal(replyRequest{
		ReplyToken: replyToken,
		Messages:   []textMessage{{Type: "text", Text: Truncate(text)}},
	})
	if err != nil {
		return &Delivery{}, fmt.Errorf("line: encode reply: %w", err)
	}

	delivery := &Delivery{}
	var lastErr error
	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		delivery.Attempts = attempt

		status, err := d.send(ctx, body)
		delivery.StatusCode = status
		if err == nil {
			d.metrics.Reply(true)
			return delivery, nil
		}
		lastErr = err

		if !retryable(err) || attempt == d.policy.MaxAttempts {
			break
		}

		wait := d.policy.delay(attempt)
		d.logger.Warn("Reply attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		if err := d.sleep(ctx, wait); err != nil {
			lastErr = err
			break
		}
	}

	d.metrics.Reply(false)
	return delivery, lastErr
}

func (d *Dispatcher) send(ctx context.Context, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.replyURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("line: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.accessToken)

	resp, err := d.client.Do(req)
	if err != nil {
		d.metrics.ReplyAttempt("error")
		return 0, fmt.Errorf("line: post reply: %w", err)
	}
	defer resp.Body.Close()
	d.metrics.ReplyAttempt(strconv.Itoa(resp.StatusCode))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Body: string(msg)}
}

// retryable treats transport errors and transient statuses as worth retrying.
func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return !errors.Is(err, context.Canceled)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
