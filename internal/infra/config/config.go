package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Provider ProviderConfig `yaml:"provider"`
	Quota    QuotaConfig    `yaml:"quota"`
	Images   ImagesConfig   `yaml:"images"`
	Stream   StreamConfig   `yaml:"stream"`
	Admin    AdminConfig    `yaml:"admin"`
	Feedback FeedbackConfig `yaml:"feedback"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the coarse per-IP limiting middleware in front of /api/*.
type RateLimitConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Window      time.Duration `yaml:"window"`
	MaxRequests int           `yaml:"maxRequests"`
}

// ProviderConfig selects the advice backend and carries upstream credentials.
type ProviderConfig struct {
	Primary string            `yaml:"primary"`
	Keys    map[string]string `yaml:"keys"`
}

// QuotaConfig gates daily usage per (provider, operation-type) key.
type QuotaConfig struct {
	DataFile    string         `yaml:"dataFile"`
	ValkeyAddr  string         `yaml:"valkeyAddr"`
	DailyLimits map[string]int `yaml:"dailyLimits"`
}

// ImagesConfig controls outfit image fan-out and the transient blob store.
type ImagesConfig struct {
	Count       int              `yaml:"count"`
	TaskTimeout time.Duration    `yaml:"taskTimeout"`
	Stagger     time.Duration    `yaml:"stagger"`
	BlobTTL     time.Duration    `yaml:"blobTtl"`
	Store       ImageStoreConfig `yaml:"store"`
}

// ImageStoreConfig points the blob store at an S3-compatible bucket when set.
type ImageStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// StreamConfig tunes the progress stream.
type StreamConfig struct {
	KeepaliveInterval time.Duration `yaml:"keepaliveInterval"`
}

// AdminConfig holds the shared secret for /api/admin routes.
type AdminConfig struct {
	APIKey string `yaml:"apiKey"`
}

// FeedbackConfig controls the feedback collection subsystem.
type FeedbackConfig struct {
	DataFile    string `yaml:"dataFile"`
	PostgresDSN string `yaml:"postgresDsn"`
	MaxConns    int32  `yaml:"maxConns"`
	MinConns    int32  `yaml:"minConns"`
}

// KnownProviders lists every backend the registry can construct.
var KnownProviders = []string{"openai", "anthropic", "google", "perplexity"}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("AI_PROVIDER"); v != "" {
		cfg.Provider.Primary = strings.ToLower(strings.TrimSpace(v))
	}
	for _, name := range KnownProviders {
		envKey := strings.ToUpper(name) + "_API_KEY"
		if v := os.Getenv(envKey); v != "" {
			cfg.Provider.Keys[name] = v
		}
		if v := os.Getenv(strings.ToUpper(name) + "_DAILY_LIMIT"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				cfg.Quota.DailyLimits[name] = parsed
			}
		}
	}
	if v := os.Getenv("OPENAI_IMAGES_DAILY_LIMIT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Quota.DailyLimits["openai-images"] = parsed
		}
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.RateLimit.Window = parsed
		}
	}
	if v := os.Getenv("RATE_LIMIT_MAX_REQUESTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.MaxRequests = parsed
		}
	}
	if v := os.Getenv("ADMIN_API_KEY"); v != "" {
		cfg.Admin.APIKey = v
	}
	if v := os.Getenv("IMAGE_COUNT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Images.Count = parsed
		}
	}
	if v := os.Getenv("IMAGE_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Images.TaskTimeout = parsed
		}
	}
	if v := os.Getenv("IMAGE_STAGGER"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Images.Stagger = parsed
		}
	}
	if v := os.Getenv("IMAGE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Images.BlobTTL = parsed
		}
	}
	if v := os.Getenv("KEEPALIVE_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Stream.KeepaliveInterval = parsed
		}
	}
	if v := os.Getenv("QUOTA_DATA_FILE"); v != "" {
		cfg.Quota.DataFile = v
	}
	if v := os.Getenv("QUOTA_VALKEY_ADDR"); v != "" {
		cfg.Quota.ValkeyAddr = v
	}
	if v := os.Getenv("FEEDBACK_DATA_FILE"); v != "" {
		cfg.Feedback.DataFile = v
	}
	if v := os.Getenv("FEEDBACK_POSTGRES_DSN"); v != "" {
		cfg.Feedback.PostgresDSN = v
	}
	if v := os.Getenv("IMAGE_STORE_ENDPOINT"); v != "" {
		cfg.Images.Store.Endpoint = v
	}
	if v := os.Getenv("IMAGE_STORE_ACCESS_KEY"); v != "" {
		cfg.Images.Store.AccessKey = v
	}
	if v := os.Getenv("IMAGE_STORE_SECRET_KEY"); v != "" {
		cfg.Images.Store.SecretKey = v
	}
	if v := os.Getenv("IMAGE_STORE_BUCKET"); v != "" {
		cfg.Images.Store.Bucket = v
	}
	if v := os.Getenv("IMAGE_STORE_REGION"); v != "" {
		cfg.Images.Store.Region = v
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:     ":8080",
			ReadTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:     true,
				Window:      15 * time.Minute,
				MaxRequests: 10,
			},
		},
		Provider: ProviderConfig{
			Primary: "openai",
			Keys:    map[string]string{},
		},
		Quota: QuotaConfig{
			DataFile: "data/rate-limits.json",
			DailyLimits: map[string]int{
				"openai":        100,
				"anthropic":     100,
				"google":        100,
				"perplexity":    100,
				"openai-images": 50,
			},
		},
		Images: ImagesConfig{
			Count:       3,
			TaskTimeout: 60 * time.Second,
			Stagger:     500 * time.Millisecond,
			BlobTTL:     5 * time.Minute,
		},
		Stream: StreamConfig{
			KeepaliveInterval: 5 * time.Second,
		},
		Feedback: FeedbackConfig{
			DataFile: "data/feedback.json",
			MaxConns: 4,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if !isKnownProvider(c.Provider.Primary) {
		return fmt.Errorf("provider.primary %q is not one of %s", c.Provider.Primary, strings.Join(KnownProviders, ", "))
	}
	if c.Images.Count <= 0 {
		return errors.New("images.count must be positive")
	}
	if c.Images.TaskTimeout <= 0 {
		return errors.New("images.taskTimeout must be positive")
	}
	if c.Images.Stagger < 0 {
		return errors.New("images.stagger cannot be negative")
	}
	if c.Images.BlobTTL <= 0 {
		return errors.New("images.blobTtl must be positive")
	}
	if c.Stream.KeepaliveInterval <= 0 {
		return errors.New("stream.keepaliveInterval must be positive")
	}
	for key, limit := range c.Quota.DailyLimits {
		if limit < 0 {
			return fmt.Errorf("quota.dailyLimits.%s cannot be negative", key)
		}
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.Window <= 0 {
			return errors.New("http.rateLimit.window must be positive")
		}
		if c.HTTP.RateLimit.MaxRequests <= 0 {
			return errors.New("http.rateLimit.maxRequests must be positive")
		}
	}
	return nil
}

func isKnownProvider(name string) bool {
	for _, candidate := range KnownProviders {
		if candidate == name {
			return true
		}
	}
	return false
}
