package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of the config.yaml file.
// Values that are awkward as env vars (templates with newlines, durations
// grouped by concern) live here. Anything set in YAML overrides the env value.
type YAMLConfig struct {
	Catalog CatalogConfig `yaml:"catalog"`
	Lazada  LazadaConfig  `yaml:"lazada"`
	Reply   ReplyConfig   `yaml:"reply"`
}

// CatalogConfig configures the degraded fallback URL.
type CatalogConfig struct {
	SearchURL string `yaml:"search_url"` // must contain {keyword}
}

// LazadaConfig overrides marketing call settings.
type LazadaConfig struct {
	SignScheme string `yaml:"sign_scheme"`
	CampaignID string `yaml:"campaign_id"`
}

// ReplyConfig tunes the reply dispatcher and message text.
type ReplyConfig struct {
	MaxAttempts int             `yaml:"max_attempts"`
	Backoff     string          `yaml:"backoff"` // Go duration, e.g. "750ms"
	Templates   TemplatesConfig `yaml:"templates"`
}

// TemplatesConfig holds the reply text templates. Placeholders are {name},
// {url} and {keyword}.
type TemplatesConfig struct {
	Matched  string `yaml:"matched"`
	Degraded string `yaml:"degraded"`
}

// LoadYAMLConfig loads the YAML configuration file.
// Path is determined by CONFIG_FILE env var, defaulting to "config.yaml".
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig() (*YAMLConfig, error) {
	path := getEnv("CONFIG_FILE", "config.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyYAML copies every non-empty YAML value over the env configuration.
func (c *Config) ApplyYAML(y *YAMLConfig) error {
	if y == nil {
		return nil
	}

	if y.Catalog.SearchURL != "" {
		c.CatalogSearchURL = y.Catalog.SearchURL
	}
	if y.Lazada.SignScheme != "" {
		c.LazadaSignScheme = y.Lazada.SignScheme
	}
	if y.Lazada.CampaignID != "" {
		c.LazadaCampaignID = y.Lazada.CampaignID
	}
	if y.Reply.MaxAttempts > 0 {
		c.ReplyMaxAttempts = y.Reply.MaxAttempts
	}
	if y.Reply.Backoff != "" {
		d, err := time.ParseDuration(y.Reply.Backoff)
		if err != nil {
			return fmt.Errorf("reply.backoff: %w", err)
		}
		c.ReplyBackoff = d
	}
	if y.Reply.Templates.Matched != "" {
		c.MatchedTemplate = y.Reply.Templates.Matched
	}
	if y.Reply.Templates.Degraded != "" {
		c.DegradedTemplate = y.Reply.Templates.Degraded
	}
	return nil
}
