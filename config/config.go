// Package config loads server settings from defaults, an optional YAML
// file and the environment, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port      string `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Store StoreConfig `yaml:"store"`
	Auth  AuthConfig  `yaml:"auth"`
	Reset ResetConfig `yaml:"reset"`
	LLM   LLMConfig   `yaml:"llm"`
	Media MediaConfig `yaml:"media"`
	CRM   CRMConfig   `yaml:"crm"`
	Cache CacheConfig `yaml:"cache"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`

	// ServiceRoleKey is the credential for the elevated store client.
	ServiceRoleKey string `yaml:"service_role_key"`
}

type AuthConfig struct {
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// ResetConfig tunes the rate-limited bulk delete.
type ResetConfig struct {
	PageSize   int           `yaml:"page_size"`
	ChunkSize  int           `yaml:"chunk_size"`
	ChunkDelay time.Duration `yaml:"chunk_delay"`
	PageDelay  time.Duration `yaml:"page_delay"`
	MaxDeletes int           `yaml:"max_deletes"`
}

type LLMConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type MediaConfig struct {
	CloudinaryURL string `yaml:"cloudinary_url"`
	Folder        string `yaml:"folder"`
	MaxBytes      int64  `yaml:"max_bytes"`
}

type CRMConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	FormKey    string `yaml:"form_key"`
	QueueSize  int    `yaml:"queue_size"`
}

type CacheConfig struct {
	TTL      time.Duration `yaml:"ttl"`
	Capacity int           `yaml:"capacity"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Port:      "8080",
		LogLevel:  "info",
		LogFormat: "json",
		Store: StoreConfig{
			Driver: "postgres",
		},
		Auth: AuthConfig{
			SessionTTL: 24 * time.Hour,
		},
		Reset: ResetConfig{
			PageSize:   100,
			ChunkSize:  10,
			ChunkDelay: 250 * time.Millisecond,
			PageDelay:  time.Second,
			MaxDeletes: 5000,
		},
		LLM: LLMConfig{
			Model: "gemini-2.5-flash",
		},
		Media: MediaConfig{
			Folder:   "keystone",
			MaxBytes: 10 << 20,
		},
		CRM: CRMConfig{
			QueueSize: 64,
		},
		Cache: CacheConfig{
			TTL:      5 * time.Minute,
			Capacity: 1000,
		},
	}
}

// Load reads .env (if present), then CONFIG_FILE (if set), then the
// environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Port)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("STORE_DRIVER", &c.Store.Driver)
	str("DATABASE_URL", &c.Store.URL)
	str("SERVICE_ROLE_KEY", &c.Store.ServiceRoleKey)
	str("GEMINI_API_KEY", &c.LLM.APIKey)
	str("LLM_MODEL", &c.LLM.Model)
	str("CLOUDINARY_URL", &c.Media.CloudinaryURL)
	str("CLOUDINARY_FOLDER", &c.Media.Folder)
	str("CRM_WEBHOOK_URL", &c.CRM.WebhookURL)
	str("CRM_FORM_KEY", &c.CRM.FormKey)

	durations := map[string]*time.Duration{
		"SESSION_TTL":       &c.Auth.SessionTTL,
		"RESET_CHUNK_DELAY": &c.Reset.ChunkDelay,
		"RESET_PAGE_DELAY":  &c.Reset.PageDelay,
		"CACHE_TTL":         &c.Cache.TTL,
	}
	for key, dst := range durations {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		}
	}

	ints := map[string]*int{
		"RESET_PAGE_SIZE":   &c.Reset.PageSize,
		"RESET_CHUNK_SIZE":  &c.Reset.ChunkSize,
		"RESET_MAX_DELETES": &c.Reset.MaxDeletes,
		"CRM_QUEUE_SIZE":    &c.CRM.QueueSize,
		"CACHE_CAPACITY":    &c.Cache.Capacity,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = n
		}
	}

	if v, ok := lookup("MEDIA_MAX_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MEDIA_MAX_BYTES: %w", err)
		}
		c.Media.MaxBytes = n
	}
	return nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "postgres", "sqlite", "mysql":
		if c.Store.URL == "" {
			return fmt.Errorf("DATABASE_URL not set for store driver %q", c.Store.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Reset.PageSize <= 0 || c.Reset.ChunkSize <= 0 {
		return fmt.Errorf("reset page and chunk sizes must be positive")
	}
	if c.Reset.ChunkSize > c.Reset.PageSize {
		return fmt.Errorf("reset chunk size %d exceeds page size %d", c.Reset.ChunkSize, c.Reset.PageSize)
	}
	if c.Reset.MaxDeletes <= 0 {
		return fmt.Errorf("reset max deletes must be positive")
	}
	if c.Reset.ChunkDelay < 0 || c.Reset.PageDelay < 0 {
		return fmt.Errorf("reset delays must not be negative")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	return nil
}

// DevMode reports whether the server runs without external services.
func (c Config) DevMode() bool {
	return c.Store.Driver == "memory"
}
