package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tuowzz/lazada-bot/internal/signing"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string
	APIToken   string // enables /api/resolve when set

	// Lazada Open Platform
	LazadaAppKey       string
	LazadaAppSecret    string
	LazadaAccessToken  string
	LazadaRefreshToken string
	LazadaAffiliateID  string
	LazadaCampaignID   string
	LazadaAPIURL       string
	LazadaAuthURL      string
	LazadaSignScheme   string // "path" or "query", applies to marketing calls only

	// Proactive token renewal
	TokenCheckInterval time.Duration
	TokenRefreshLead   time.Duration

	// Degraded fallback, "{keyword}" is replaced by the escaped keyword
	CatalogSearchURL string

	// LINE Messaging API
	LineChannelAccessToken string
	LineChannelSecret      string // optional, enables X-Line-Signature checks
	LineAPIURL             string

	// Reply retry policy
	ReplyMaxAttempts int
	ReplyBackoff     time.Duration

	// Optional backends
	RedisURL    string // shares the access token between replicas
	DatabaseURL string // enables keyword lookup analytics

	// Reply templates, set from YAML
	MatchedTemplate  string
	DegradedTemplate string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:        getEnv("ENV", "development"),
		ServerAddr: serverAddr(),
		APIToken:   getEnv("API_TOKEN", ""),

		LazadaAppKey:       getEnv("LAZADA_APP_KEY", ""),
		LazadaAppSecret:    getEnv("LAZADA_APP_SECRET", ""),
		LazadaAccessToken:  getEnv("LAZADA_ACCESS_TOKEN", ""),
		LazadaRefreshToken: getEnv("LAZADA_REFRESH_TOKEN", ""),
		LazadaAffiliateID:  getEnv("LAZADA_AFFILIATE_ID", ""),
		LazadaCampaignID:   getEnv("LAZADA_CAMPAIGN_ID", ""),
		LazadaAPIURL:       getEnv("LAZADA_API_URL", "https://api.lazada.co.th/rest"),
		LazadaAuthURL:      getEnv("LAZADA_AUTH_URL", "https://auth.lazada.com/rest"),
		LazadaSignScheme:   getEnv("LAZADA_SIGN_SCHEME", "path"),

		TokenCheckInterval: getEnvDuration("TOKEN_CHECK_INTERVAL", 10*time.Minute),
		TokenRefreshLead:   getEnvDuration("TOKEN_REFRESH_LEAD", time.Hour),

		CatalogSearchURL: getEnv("CATALOG_SEARCH_URL", "https://www.lazada.co.th/catalog/?q={keyword}"),

		LineChannelAccessToken: getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineChannelSecret:      getEnv("LINE_CHANNEL_SECRET", ""),
		LineAPIURL:             getEnv("LINE_API_URL", "https://api.line.me/v2/bot/message/reply"),

		ReplyMaxAttempts: getEnvInt("REPLY_MAX_ATTEMPTS", 3),
		ReplyBackoff:     getEnvDuration("REPLY_BACKOFF", 500*time.Millisecond),

		RedisURL:    getEnv("REDIS_URL", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),
	}
}

// serverAddr honours PORT (as set by most PaaS runtimes) before SERVER_ADDR.
func serverAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + strings.TrimPrefix(port, ":")
	}
	return getEnv("SERVER_ADDR", ":5000")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}

// ErrMissingConfig is wrapped by Validate for every absent required value.
var ErrMissingConfig = errors.New("missing required configuration")

// Validate reports every required value that is missing. The refresh token is
// optional; without it an expired access token cannot be renewed.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"LAZADA_APP_KEY", c.LazadaAppKey},
		{"LAZADA_APP_SECRET", c.LazadaAppSecret},
		{"LAZADA_ACCESS_TOKEN", c.LazadaAccessToken},
		{"LAZADA_AFFILIATE_ID", c.LazadaAffiliateID},
		{"LINE_CHANNEL_ACCESS_TOKEN", c.LineChannelAccessToken},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	if _, err := signing.ParseScheme(c.LazadaSignScheme); err != nil {
		return fmt.Errorf("LAZADA_SIGN_SCHEME: %w", err)
	}
	return nil
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// AnalyticsEnabled reports whether keyword lookups are persisted.
func (c *Config) AnalyticsEnabled() bool {
	return c.DatabaseURL != ""
}
