package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds the settings for one snapshot run.
type Config struct {
	BaseURL         string
	ManualPath      string // fmt template, must contain %02d for the week
	OutputFile      string
	Timeout         time.Duration
	UserAgent       string
	ResponseCharset string
	Week            int // 0 derives the week from today
	SeenCacheSize   int
	MetricsFile     string
	Verbose         bool
}

// DefaultConfig returns the settings for the current manual.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "https://www.churchofjesuschrist.org",
		ManualPath:      "/study/manual/come-follow-me-for-home-and-church-old-testament-2026/%02d?lang=eng",
		OutputFile:      "data/come_follow_me_this_week.json",
		Timeout:         30 * time.Second,
		UserAgent:       "Mozilla/5.0 (compatible; SnowCanyonWardBot/1.0; +https://github.com/kdidso)",
		ResponseCharset: "utf-8",
		Week:            0,
		SeenCacheSize:   1024,
		MetricsFile:     "",
		Verbose:         false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if !strings.Contains(c.ManualPath, "%02d") {
		return fmt.Errorf("manual path must contain a %%02d week placeholder")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.ResponseCharset == "" {
		return fmt.Errorf("response charset cannot be empty")
	}
	if c.Week < 0 || c.Week > 52 {
		return fmt.Errorf("week must be between 1 and 52, or 0 for the current week")
	}
	if c.SeenCacheSize <= 0 {
		return fmt.Errorf("seen cache size must be positive")
	}

	return nil
}

// Base returns the parsed base URL. Call Validate first.
func (c *Config) Base() *url.URL {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return &url.URL{}
	}
	return u
}

// SourceURL builds the manual page URL for a week.
func (c *Config) SourceURL(week int) string {
	return strings.TrimSuffix(c.BaseURL, "/") + fmt.Sprintf(c.ManualPath, week)
}
