package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Retry    RetryConfig    `yaml:"retry"`
	Sources  SourcesConfig  `yaml:"sources"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Name      string `yaml:"name"`
	HTTPAddr  string `yaml:"http_addr"`
	UserAgent string `yaml:"user_agent"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Persist    bool          `yaml:"persist"`
}

type RetryConfig struct {
	Count int           `yaml:"count"`
	Delay time.Duration `yaml:"delay"`
}

type SourcesConfig struct {
	Jikan    SourceConfig `yaml:"jikan"`
	AniList  SourceConfig `yaml:"anilist"`
	MangaDex SourceConfig `yaml:"mangadex"`
	Wiki     SourceConfig `yaml:"wiki"`
}

// SourceConfig describes one upstream API. For the wiki source BaseURL is a
// format string receiving the wiki slug of the requested story.
type SourceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Delay   time.Duration `yaml:"delay"`
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name:      "loreweave",
			HTTPAddr:  ":8787",
			UserAgent: "loreweave/dev",
		},
		Database: DatabaseConfig{DSN: "sqlite://./loreweave.db"},
		Cache: CacheConfig{
			TTL:        time.Hour,
			MaxEntries: 1000,
			Persist:    true,
		},
		Retry: RetryConfig{
			Count: 3,
			Delay: 2 * time.Second,
		},
		Sources: SourcesConfig{
			Jikan: SourceConfig{
				BaseURL: "https://api.jikan.moe/v4",
				Delay:   time.Second,
				Timeout: 10 * time.Second,
			},
			AniList: SourceConfig{
				BaseURL: "https://graphql.anilist.co",
				Delay:   time.Second,
				Timeout: 10 * time.Second,
			},
			MangaDex: SourceConfig{
				BaseURL: "https://api.mangadex.org",
				Delay:   200 * time.Millisecond,
				Timeout: 10 * time.Second,
			},
			Wiki: SourceConfig{
				BaseURL: "https://%s.fandom.com",
				Delay:   500 * time.Millisecond,
				Timeout: 15 * time.Second,
			},
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. When optional is true a missing file yields the defaults.
func Load(path string, optional bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Server.Name) == "" {
		return fmt.Errorf("server name is required")
	}
	if !hasDSNScheme(cfg.Database.DSN) {
		return fmt.Errorf("unsupported database dsn %q: expected sqlite://, postgres:// or postgresql://", cfg.Database.DSN)
	}
	if cfg.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}
	if cfg.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache max_entries must be positive")
	}
	if cfg.Retry.Count < 0 || cfg.Retry.Count > 10 {
		return fmt.Errorf("retry count must be between 0 and 10")
	}
	if cfg.Retry.Delay < 0 {
		return fmt.Errorf("retry delay must not be negative")
	}

	sources := []struct {
		name string
		src  SourceConfig
	}{
		{"jikan", cfg.Sources.Jikan},
		{"anilist", cfg.Sources.AniList},
		{"mangadex", cfg.Sources.MangaDex},
		{"wiki", cfg.Sources.Wiki},
	}
	for _, item := range sources {
		if strings.TrimSpace(item.src.BaseURL) == "" {
			return fmt.Errorf("source %s base_url is required", item.name)
		}
		if item.src.Delay < 0 {
			return fmt.Errorf("source %s delay must not be negative", item.name)
		}
		if item.src.Timeout <= 0 {
			return fmt.Errorf("source %s timeout must be positive", item.name)
		}
	}
	if !strings.Contains(cfg.Sources.Wiki.BaseURL, "%s") {
		return fmt.Errorf("source wiki base_url must contain %%s for the wiki slug")
	}

	return nil
}

func hasDSNScheme(dsn string) bool {
	for _, prefix := range []string{"sqlite://", "postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return true
		}
	}
	return false
}

// IsPostgres reports whether the configured DSN targets a Postgres database.
func (c DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(c.DSN, "postgres://") || strings.HasPrefix(c.DSN, "postgresql://")
}
