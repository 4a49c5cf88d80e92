package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sjsage522/soldlistings/helpers"
	apperrors "sjsage522/soldlistings/pkg/errors"
)

// DefaultSearchURL is the eBay search endpoint queries are appended to
const DefaultSearchURL = "https://www.ebay.com/sch/i.html"

// Config represents the application configuration
type Config struct {
	// Scraping
	SearchURL         string
	FetchTimeout      time.Duration
	Queries           []string
	StartID           int
	StrictMode        bool
	IncludeSearchPage bool

	// Output files, empty disables the sink
	OutputCSV  string
	OutputJSON string

	// Redis stream configuration, empty address disables publishing
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration, empty address disables the rate-limit block
	MemcacheAddr string
	BlockTime    time.Duration

	// PostgreSQL sink, empty DSN disables it
	DatabaseURL string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		SearchURL:            getEnv("EBAY_SEARCH_URL", DefaultSearchURL),
		FetchTimeout:         time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
		Queries:              helpers.SplitNonEmpty(os.Getenv("SCRAPE_QUERIES"), ";"),
		StartID:              getEnvInt("START_ID", 0),
		StrictMode:           getEnvBool("STRICT_MODE", false),
		IncludeSearchPage:    getEnvBool("INCLUDE_SEARCH_PAGE", false),
		OutputCSV:            os.Getenv("OUTPUT_CSV"),
		OutputJSON:           os.Getenv("OUTPUT_JSON"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "sold_listings"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),
		MemcacheAddr:         os.Getenv("MEMCACHE_ADDR"),
		BlockTime:            time.Duration(getEnvInt("BLOCK_SECONDS", 500)) * time.Second,
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		Environment:          getEnv("SCRAPER_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the scraper cannot run with
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.SearchURL, "http://") && !strings.HasPrefix(c.SearchURL, "https://") {
		return apperrors.NewConfiguration(fmt.Sprintf("EBAY_SEARCH_URL must be an http(s) URL, got %q", c.SearchURL), nil)
	}
	if c.FetchTimeout <= 0 {
		return apperrors.NewConfiguration("FETCH_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.StartID < 0 {
		return apperrors.NewConfiguration("START_ID must not be negative", nil)
	}
	if c.RedisAddr != "" {
		if c.RedisStream == "" {
			return apperrors.NewConfiguration("REDIS_STREAM must be set when REDIS_ADDR is", nil)
		}
		if c.RedisStreamCount < 1 {
			return apperrors.NewConfiguration("REDIS_STREAM_COUNT must be at least 1", nil)
		}
		if c.RedisStreamMaxLength < 1 {
			return apperrors.NewConfiguration("REDIS_STREAM_MAX_LENGTH must be at least 1", nil)
		}
	}
	if c.MemcacheAddr != "" && c.BlockTime <= 0 {
		return apperrors.NewConfiguration("BLOCK_SECONDS must be positive when MEMCACHE_ADDR is set", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
