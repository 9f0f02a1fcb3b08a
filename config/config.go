// Package config holds runtime configuration for the review scraper.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxReviewsLimit is the hard per-session ceiling. Requests above it are
// rejected before a browser session opens.
const MaxReviewsLimit = 500

// Config holds scraper configuration.
type Config struct {
	// Request policy.
	SourceHostPattern string // regexp a target URL must match
	MaxReviews        int    // default request cap, 1..MaxReviewsLimit

	// Reveal loop.
	StallThreshold int // consecutive no-growth steps before stall
	MaxRevealSteps int
	RevealDelayMin time.Duration
	RevealDelayMax time.Duration

	// Browser.
	Headless          bool
	BrowserBin        string // empty resolves via the launcher
	UserAgent         string // empty picks a random one per session
	NavigationTimeout time.Duration
	PoolSize          int // concurrent browser sessions

	// Snapshot capture retry.
	MaxRetries      int
	RetryBackoff    time.Duration
	RetryBackoffMax time.Duration

	// Extraction.
	Extractor         string // gemini or dom
	Model             string
	APIKey            string // from GEMINI_API_KEY, never read from file
	ExtractAttempts   int
	ExtractBackoff    time.Duration
	ExtractBackoffMax time.Duration
	PromptCharLimit   int

	// Pacing shared by navigation, reveal steps and extraction calls.
	RequestsPerSecond float64
	RequestBurst      int

	// Extraction memo.
	SnapshotCacheSize int

	// Output.
	OutputDir    string
	OutputFormat string // json, csv, or dual

	MetricsAddr string
	Verbose     bool
}

// DefaultConfig returns conservative defaults for the supported target.
func DefaultConfig() *Config {
	return &Config{
		SourceHostPattern: `(google\.[a-z.]+/maps|maps\.app\.goo\.gl)`,
		MaxReviews:        100,
		StallThreshold:    3,
		MaxRevealSteps:    60,
		RevealDelayMin:    1 * time.Second,
		RevealDelayMax:    5 * time.Second,
		Headless:          true,
		NavigationTimeout: 30 * time.Second,
		PoolSize:          2,
		MaxRetries:        2,
		RetryBackoff:      200 * time.Millisecond,
		RetryBackoffMax:   2 * time.Second,
		Extractor:         "gemini",
		Model:             "gemini-1.5-flash",
		ExtractAttempts:   3,
		ExtractBackoff:    1 * time.Second,
		ExtractBackoffMax: 8 * time.Second,
		PromptCharLimit:   40000,
		RequestsPerSecond: 2,
		RequestBurst:      2,
		SnapshotCacheSize: 256,
		OutputDir:         "output",
		OutputFormat:      "json",
		Verbose:           false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.SourceHostPattern == "" {
		return fmt.Errorf("source host pattern cannot be empty")
	}
	if _, err := regexp.Compile(c.SourceHostPattern); err != nil {
		return fmt.Errorf("invalid source host pattern: %w", err)
	}
	if c.MaxReviews <= 0 {
		return fmt.Errorf("max reviews must be positive")
	}
	if c.MaxReviews > MaxReviewsLimit {
		return fmt.Errorf("max reviews cannot exceed %d", MaxReviewsLimit)
	}
	if c.StallThreshold <= 0 {
		return fmt.Errorf("stall threshold must be positive")
	}
	if c.MaxRevealSteps <= 0 {
		return fmt.Errorf("max reveal steps must be positive")
	}
	if c.RevealDelayMin < 0 {
		return fmt.Errorf("reveal delay min cannot be negative")
	}
	if c.RevealDelayMax < c.RevealDelayMin {
		return fmt.Errorf("reveal delay max (%s) cannot be below reveal delay min (%s)", c.RevealDelayMax, c.RevealDelayMin)
	}
	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be positive")
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("pool size must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.Extractor != "gemini" && c.Extractor != "dom" {
		return fmt.Errorf("extractor must be gemini or dom")
	}
	if c.Extractor == "gemini" && c.Model == "" {
		return fmt.Errorf("model cannot be empty for the gemini extractor")
	}
	if c.ExtractAttempts <= 0 {
		return fmt.Errorf("extract attempts must be positive")
	}
	if c.ExtractBackoff < 0 {
		return fmt.Errorf("extract backoff cannot be negative")
	}
	if c.ExtractBackoffMax > 0 && c.ExtractBackoff > c.ExtractBackoffMax {
		return fmt.Errorf("extract backoff (%s) cannot exceed extract backoff max (%s)", c.ExtractBackoff, c.ExtractBackoffMax)
	}
	if c.PromptCharLimit <= 0 {
		return fmt.Errorf("prompt char limit must be positive")
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive")
	}
	if c.RequestBurst <= 0 {
		return fmt.Errorf("request burst must be positive")
	}
	if c.SnapshotCacheSize <= 0 {
		return fmt.Errorf("snapshot cache size must be positive")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	return nil
}

// fileConfig mirrors Config for YAML overlay. Pointer fields distinguish
// absent keys from zero values; durations arrive as strings ("30s").
type fileConfig struct {
	SourceHostPattern *string  `yaml:"source_host_pattern"`
	MaxReviews        *int     `yaml:"max_reviews"`
	StallThreshold    *int     `yaml:"stall_threshold"`
	MaxRevealSteps    *int     `yaml:"max_reveal_steps"`
	RevealDelayMin    *string  `yaml:"reveal_delay_min"`
	RevealDelayMax    *string  `yaml:"reveal_delay_max"`
	Headless          *bool    `yaml:"headless"`
	BrowserBin        *string  `yaml:"browser_bin"`
	UserAgent         *string  `yaml:"user_agent"`
	NavigationTimeout *string  `yaml:"navigation_timeout"`
	PoolSize          *int     `yaml:"pool_size"`
	MaxRetries        *int     `yaml:"max_retries"`
	RetryBackoff      *string  `yaml:"retry_backoff"`
	RetryBackoffMax   *string  `yaml:"retry_backoff_max"`
	Extractor         *string  `yaml:"extractor"`
	Model             *string  `yaml:"model"`
	ExtractAttempts   *int     `yaml:"extract_attempts"`
	ExtractBackoff    *string  `yaml:"extract_backoff"`
	ExtractBackoffMax *string  `yaml:"extract_backoff_max"`
	PromptCharLimit   *int     `yaml:"prompt_char_limit"`
	RequestsPerSecond *float64 `yaml:"requests_per_second"`
	RequestBurst      *int     `yaml:"request_burst"`
	SnapshotCacheSize *int     `yaml:"snapshot_cache_size"`
	OutputDir         *string  `yaml:"output_dir"`
	OutputFormat      *string  `yaml:"output_format"`
	MetricsAddr       *string  `yaml:"metrics_addr"`
	Verbose           *bool    `yaml:"verbose"`
}

// LoadFile overlays settings from a YAML file onto the config. Fields the
// file does not mention keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&c.SourceHostPattern, fc.SourceHostPattern)
	setInt(&c.MaxReviews, fc.MaxReviews)
	setInt(&c.StallThreshold, fc.StallThreshold)
	setInt(&c.MaxRevealSteps, fc.MaxRevealSteps)
	setBool(&c.Headless, fc.Headless)
	setString(&c.BrowserBin, fc.BrowserBin)
	setString(&c.UserAgent, fc.UserAgent)
	setInt(&c.PoolSize, fc.PoolSize)
	setInt(&c.MaxRetries, fc.MaxRetries)
	setString(&c.Extractor, fc.Extractor)
	setString(&c.Model, fc.Model)
	setInt(&c.ExtractAttempts, fc.ExtractAttempts)
	setInt(&c.PromptCharLimit, fc.PromptCharLimit)
	setFloat(&c.RequestsPerSecond, fc.RequestsPerSecond)
	setInt(&c.RequestBurst, fc.RequestBurst)
	setInt(&c.SnapshotCacheSize, fc.SnapshotCacheSize)
	setString(&c.OutputDir, fc.OutputDir)
	setString(&c.OutputFormat, fc.OutputFormat)
	setString(&c.MetricsAddr, fc.MetricsAddr)
	setBool(&c.Verbose, fc.Verbose)

	durations := []struct {
		key string
		dst *time.Duration
		src *string
	}{
		{"reveal_delay_min", &c.RevealDelayMin, fc.RevealDelayMin},
		{"reveal_delay_max", &c.RevealDelayMax, fc.RevealDelayMax},
		{"navigation_timeout", &c.NavigationTimeout, fc.NavigationTimeout},
		{"retry_backoff", &c.RetryBackoff, fc.RetryBackoff},
		{"retry_backoff_max", &c.RetryBackoffMax, fc.RetryBackoffMax},
		{"extract_backoff", &c.ExtractBackoff, fc.ExtractBackoff},
		{"extract_backoff_max", &c.ExtractBackoffMax, fc.ExtractBackoffMax},
	}
	for _, d := range durations {
		if err := setDuration(d.dst, d.src); err != nil {
			return fmt.Errorf("config file %s: %s: %w", path, d.key, err)
		}
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(*src))
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// EnvString reads a non-empty string environment variable.
func EnvString(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// EnvInt reads an integer environment variable.
func EnvInt(key string) (int, bool, error) {
	v, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}

// EnvBool reads a boolean environment variable.
func EnvBool(key string) (bool, bool, error) {
	v, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", key, err)
	}
	return b, true, nil
}
