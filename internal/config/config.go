package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Sites      SitesConfig
	Timeouts   TimeoutConfig
	Cache      CacheConfig
	Enrichment EnrichmentConfig
	Redis      RedisConfig
	Postgres   PostgresConfig
	Logging    LoggingConfig
	HTTP       HTTPConfig
}

type SitesConfig struct {
	Shugiin SiteConfig
	Sangiin SiteConfig
}

// SiteConfig locates one chamber's directory. ListPages are paths joined
// onto BaseURL; the lower house splits its directory across syllabary
// pages, the upper house serves a single page.
type SiteConfig struct {
	BaseURL   string
	ListPages []string
}

func (s SiteConfig) PageURLs() []string {
	urls := make([]string, 0, len(s.ListPages))
	for _, p := range s.ListPages {
		urls = append(urls, strings.TrimRight(s.BaseURL, "/")+p)
	}
	return urls
}

type TimeoutConfig struct {
	PageLoad     time.Duration
	Navigation   time.Duration
	ProfileFetch time.Duration
	NetworkIdle  time.Duration
}

type CacheConfig struct {
	Dir    string
	MaxAge time.Duration
}

type EnrichmentConfig struct {
	Concurrency int
	Delay       time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Enabled reports whether the optional page cache is configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Enabled reports whether the optional archive sink is configured.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

type LoggingConfig struct {
	Level string
	File  string
}

type HTTPConfig struct {
	UserAgent string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Sites: SitesConfig{
			Shugiin: SiteConfig{
				BaseURL:   getEnv("SHUGIIN_BASE_URL", "https://www.shugiin.go.jp"),
				ListPages: parseCommaSeparated(getEnv("SHUGIIN_LIST_PAGES", defaultShugiinPages())),
			},
			Sangiin: SiteConfig{
				BaseURL:   getEnv("SANGIIN_BASE_URL", "https://www.sangiin.go.jp"),
				ListPages: parseCommaSeparated(getEnv("SANGIIN_LIST_PAGES", "/japanese/joho1/kousei/giin/217/giin.htm")),
			},
		},
		Timeouts: TimeoutConfig{
			PageLoad:     time.Duration(getEnvInt("PAGE_LOAD_TIMEOUT_MS", 20000)) * time.Millisecond,
			Navigation:   time.Duration(getEnvInt("NAVIGATION_TIMEOUT_MS", 30000)) * time.Millisecond,
			ProfileFetch: time.Duration(getEnvInt("PROFILE_FETCH_TIMEOUT_MS", 15000)) * time.Millisecond,
			NetworkIdle:  time.Duration(getEnvInt("NETWORK_IDLE_TIMEOUT_MS", 3000)) * time.Millisecond,
		},
		Cache: CacheConfig{
			Dir:    getEnv("CACHE_DIR", "data/cache"),
			MaxAge: time.Duration(getEnvInt("CACHE_MAX_AGE_HOURS", 24)) * time.Hour,
		},
		Enrichment: EnrichmentConfig{
			Concurrency: getEnvInt("ENRICH_CONCURRENCY", 3),
			Delay:       time.Duration(getEnvInt("ENRICH_DELAY_MS", 1000)) * time.Millisecond,
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", ""),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "kokkai"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			DBName:   getEnv("POSTGRES_DB", "kokkai"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
		HTTP: HTTPConfig{
			UserAgent: getEnv("USER_AGENT", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Sites.Shugiin.BaseURL == "" {
		return fmt.Errorf("SHUGIIN_BASE_URL is required")
	}
	if len(c.Sites.Shugiin.ListPages) == 0 {
		return fmt.Errorf("SHUGIIN_LIST_PAGES is required")
	}
	if c.Sites.Sangiin.BaseURL == "" {
		return fmt.Errorf("SANGIIN_BASE_URL is required")
	}
	if len(c.Sites.Sangiin.ListPages) == 0 {
		return fmt.Errorf("SANGIIN_LIST_PAGES is required")
	}
	if c.Cache.Dir == "" {
		return fmt.Errorf("CACHE_DIR is required")
	}
	return nil
}

// defaultShugiinPages lists the ten syllabary pages of the lower-house
// member directory (1giin.htm through 10giin.htm).
func defaultShugiinPages() string {
	parts := make([]string, 0, 10)
	for i := 1; i <= 10; i++ {
		parts = append(parts, fmt.Sprintf("/internet/itdb_giinprof.nsf/html/profile/%dgiin.htm", i))
	}
	return strings.Join(parts, ",")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
