package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the harvesting pipeline.
// Components receive the sections they need through their constructors;
// nothing reads process environment state after Load returns.
type Config struct {
	// Apify job API credentials and tuning
	Apify ApifyConfig `yaml:"apify" json:"apify"`

	// Reddit public JSON endpoint settings
	Reddit RedditConfig `yaml:"reddit" json:"reddit"`

	// YouTube Data API settings
	YouTube YouTubeConfig `yaml:"youtube" json:"youtube"`

	// Harvest limits (discovery, bundling, sampling, enrichment)
	Harvest HarvestConfig `yaml:"harvest" json:"harvest"`

	// Result cache settings
	Cache CacheConfig `yaml:"cache" json:"cache"`

	// Retry and pacing configuration shared by all remote clients
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Optional AI annotation collaborator
	AI AIConfig `yaml:"ai" json:"ai"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ApifyConfig holds settings for the job-based remote API.
type ApifyConfig struct {
	Token        string        `yaml:"token" json:"token"`
	ActorID      string        `yaml:"actor_id" json:"actor_id"`
	BaseURL      string        `yaml:"base_url" json:"base_url"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
	MaxWait      time.Duration `yaml:"max_wait" json:"max_wait"`
}

// RedditConfig holds settings for the anonymous public JSON client.
type RedditConfig struct {
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// YouTubeConfig holds settings for the YouTube Data API v3 client.
type YouTubeConfig struct {
	APIKey  string        `yaml:"api_key" json:"api_key"`
	BaseURL string        `yaml:"base_url" json:"base_url"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// HarvestConfig bounds each stage of a run.
type HarvestConfig struct {
	Platform           string `yaml:"platform" json:"platform"`
	SeedPosts          int    `yaml:"seed_posts" json:"seed_posts"`
	CommentsPerPost    int    `yaml:"comments_per_post" json:"comments_per_post"`
	MaxUsers           int    `yaml:"max_users" json:"max_users"`
	SampleSize         int    `yaml:"sample_size" json:"sample_size"`
	UserPosts          int    `yaml:"user_posts" json:"user_posts"`
	MaxCommentsPerUser int    `yaml:"max_comments_per_user" json:"max_comments_per_user"`
	MinComments        int    `yaml:"min_comments" json:"min_comments"`
	Dedupe             bool   `yaml:"dedupe" json:"dedupe"`
	EnrichWorkers      int    `yaml:"enrich_workers" json:"enrich_workers"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Directory string `yaml:"directory" json:"directory"`
	Enabled   bool   `yaml:"enabled" json:"enabled"`
}

// RateLimitConfig holds retry and request pacing configuration.
type RateLimitConfig struct {
	MinRequestGap     time.Duration `yaml:"min_request_gap" json:"min_request_gap"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	BackoffBase       time.Duration `yaml:"backoff_base" json:"backoff_base"`
	BackoffMax        time.Duration `yaml:"backoff_max" json:"backoff_max"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier"`
}

// AIConfig holds settings for the optional annotation collaborator.
type AIConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	BaseURL string `yaml:"base_url" json:"base_url"`
	Model   string `yaml:"model" json:"model"`
	Token   string `yaml:"token" json:"token"`
}

// OutputConfig holds output file configuration.
type OutputConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults.
// The defaults mirror the limits the pipeline was tuned with: 10 seed
// posts, 150 comments per post, a sample of 250 commenters, 10 posts per
// sampled user and at most 50 stored comments per user.
func DefaultConfig() *Config {
	return &Config{
		Apify: ApifyConfig{
			ActorID:      "apify~instagram-scraper",
			BaseURL:      "https://api.apify.com/v2",
			Timeout:      5 * time.Minute,
			PollInterval: 5 * time.Second,
			MaxWait:      10 * time.Minute,
		},
		Reddit: RedditConfig{
			BaseURL:   "https://www.reddit.com",
			UserAgent: "identivibe/1.0 (harvest pipeline)",
			Timeout:   20 * time.Second,
		},
		YouTube: YouTubeConfig{
			BaseURL: "https://www.googleapis.com/youtube/v3",
			Timeout: 20 * time.Second,
		},
		Harvest: HarvestConfig{
			Platform:           "reddit",
			SeedPosts:          10,
			CommentsPerPost:    150,
			MaxUsers:           30,
			SampleSize:         250,
			UserPosts:          10,
			MaxCommentsPerUser: 50,
			MinComments:        1,
			Dedupe:             true,
			EnrichWorkers:      1,
		},
		Cache: CacheConfig{
			Directory: "./cache",
			Enabled:   true,
		},
		RateLimit: RateLimitConfig{
			MinRequestGap:     250 * time.Millisecond,
			MaxRetries:        3,
			BackoffBase:       1200 * time.Millisecond,
			BackoffMax:        60 * time.Second,
			BackoffMultiplier: 2.0,
		},
		AI: AIConfig{
			Enabled: false,
			Model:   "gpt-4o-mini",
		},
		Output: OutputConfig{
			Path: "bundles.json",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration overrides from environment variables.
func (c *Config) LoadFromEnv() error {
	if token := os.Getenv("APIFY_TOKEN"); token != "" {
		c.Apify.Token = token
	}
	if actor := os.Getenv("IDENTIVIBE_ACTOR_ID"); actor != "" {
		c.Apify.ActorID = actor
	}
	if key := os.Getenv("YOUTUBE_API_KEY"); key != "" {
		c.YouTube.APIKey = key
	}
	if ua := os.Getenv("IDENTIVIBE_USER_AGENT"); ua != "" {
		c.Reddit.UserAgent = ua
	}
	if dir := os.Getenv("IDENTIVIBE_CACHE_DIR"); dir != "" {
		c.Cache.Directory = dir
	}
	if retries := os.Getenv("IDENTIVIBE_MAX_RETRIES"); retries != "" {
		if val, err := strconv.Atoi(retries); err == nil && val >= 0 {
			c.RateLimit.MaxRetries = val
		}
	}
	if workers := os.Getenv("IDENTIVIBE_ENRICH_WORKERS"); workers != "" {
		if val, err := strconv.Atoi(workers); err == nil && val > 0 {
			c.Harvest.EnrichWorkers = val
		}
	}
	if level := os.Getenv("IDENTIVIBE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if base := os.Getenv("IDENTIVIBE_AI_BASE_URL"); base != "" {
		c.AI.BaseURL = base
	}
	if token := os.Getenv("IDENTIVIBE_AI_TOKEN"); token != "" {
		c.AI.Token = token
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations.
func (c *Config) findConfigFile() string {
	locations := []string{
		".identivibe.yaml",
		".identivibe.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "identivibe", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".identivibe.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Harvest.Platform) {
	case "reddit", "instagram", "youtube":
	default:
		errs = append(errs, fmt.Errorf("unknown platform: %q", c.Harvest.Platform))
	}

	if c.Harvest.SeedPosts <= 0 {
		errs = append(errs, errors.New("seed posts must be positive"))
	}
	if c.Harvest.CommentsPerPost <= 0 {
		errs = append(errs, errors.New("comments per post must be positive"))
	}
	if c.Harvest.MaxUsers <= 0 {
		errs = append(errs, errors.New("max users must be positive"))
	}
	if c.Harvest.SampleSize < 0 {
		errs = append(errs, errors.New("sample size cannot be negative"))
	}
	if c.Harvest.MaxCommentsPerUser <= 0 {
		errs = append(errs, errors.New("max comments per user must be positive"))
	}
	if c.Harvest.MinComments < 0 {
		errs = append(errs, errors.New("min comments cannot be negative"))
	}
	if c.Harvest.EnrichWorkers <= 0 {
		errs = append(errs, errors.New("enrich workers must be positive"))
	}

	if c.RateLimit.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.RateLimit.MinRequestGap < 0 {
		errs = append(errs, errors.New("min request gap cannot be negative"))
	}
	if c.RateLimit.BackoffMultiplier < 1.0 {
		errs = append(errs, errors.New("backoff multiplier must be at least 1.0"))
	}

	if c.Cache.Enabled && c.Cache.Directory == "" {
		errs = append(errs, errors.New("cache directory is required when caching is enabled"))
	}

	if c.Apify.PollInterval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}
	if c.Apify.MaxWait <= 0 {
		errs = append(errs, errors.New("max wait must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flag values into the configuration.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if platform, ok := flags["platform"].(string); ok && platform != "" {
		c.Harvest.Platform = platform
	}
	if posts, ok := flags["posts"].(int); ok && posts > 0 {
		c.Harvest.SeedPosts = posts
	}
	if comments, ok := flags["comments"].(int); ok && comments > 0 {
		c.Harvest.CommentsPerPost = comments
	}
	if maxUsers, ok := flags["max-users"].(int); ok && maxUsers > 0 {
		c.Harvest.MaxUsers = maxUsers
	}
	if sample, ok := flags["sample"].(int); ok && sample >= 0 {
		c.Harvest.SampleSize = sample
	}
	if userPosts, ok := flags["user-posts"].(int); ok && userPosts > 0 {
		c.Harvest.UserPosts = userPosts
	}
	if maxPerUser, ok := flags["max-comments-per-user"].(int); ok && maxPerUser > 0 {
		c.Harvest.MaxCommentsPerUser = maxPerUser
	}
	if workers, ok := flags["enrich-workers"].(int); ok && workers > 0 {
		c.Harvest.EnrichWorkers = workers
	}
	if cacheDir, ok := flags["cache-dir"].(string); ok && cacheDir != "" {
		c.Cache.Directory = cacheDir
	}
	if noCache, ok := flags["no-cache"].(bool); ok && noCache {
		c.Cache.Enabled = false
	}
	if out, ok := flags["out"].(string); ok && out != "" {
		c.Output.Path = out
	}
	if token, ok := flags["token"].(string); ok && token != "" {
		c.Apify.Token = token
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: command line flags > environment variables > .env file > config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".identivibe.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
