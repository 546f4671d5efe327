// Package config loads server settings from the environment and an optional TOML file.
//
// Precedence, lowest first:
//
//  1. built-in defaults
//  2. the TOML file named by MARKET_CONFIG, when set
//  3. environment variables (a .env file in the working directory is loaded first
//     and never overrides variables already set)
//
// Example market.toml:
//
//	app_url = "https://market.campus.edu"
//	cors_origins = ["https://market.campus.edu"]
//	page_size = 12
//
//	[cache]
//	stale_after = "5m"
//	expire_after = "10m"
//	janitor_schedule = "@every 1m"
//
//	[buckets]
//	avatars = "avatars"
//	listings = "listing_img"
//
//	[redis]
//	addr = "127.0.0.1:6379"
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/janisto/campus-market/internal/market"
	"github.com/janisto/campus-market/internal/market/cache"
	"github.com/janisto/campus-market/internal/platform/pagination"
)

// FileEnv names the variable holding the TOML config path.
const FileEnv = "MARKET_CONFIG"

const (
	defaultPort   = "8080"
	defaultAppURL = "http://localhost:3000"
)

// Config is the resolved server configuration.
type Config struct {
	Port            string
	ProjectID       string
	CredentialsFile string
	AppURL          string
	CORSOrigins     []string
	PageSize        int
	Cache           Cache
	Buckets         market.Buckets
	Redis           Redis
}

// Cache tunes the read cache.
type Cache struct {
	StaleAfter      time.Duration
	ExpireAfter     time.Duration
	JanitorSchedule string
}

// Redis selects the shared sign-in cooldown store. An empty Addr keeps the cooldown
// in process memory.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// fileConfig mirrors the TOML layout. Durations are strings parsed with time.ParseDuration.
type fileConfig struct {
	Port        string   `toml:"port"`
	ProjectID   string   `toml:"project_id"`
	AppURL      string   `toml:"app_url"`
	CORSOrigins []string `toml:"cors_origins"`
	PageSize    int      `toml:"page_size"`
	Cache       struct {
		StaleAfter      string `toml:"stale_after"`
		ExpireAfter     string `toml:"expire_after"`
		JanitorSchedule string `toml:"janitor_schedule"`
	} `toml:"cache"`
	Buckets struct {
		Avatars  string `toml:"avatars"`
		Listings string `toml:"listings"`
	} `toml:"buckets"`
	Redis struct {
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
	} `toml:"redis"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:     defaultPort,
		AppURL:   defaultAppURL,
		PageSize: pagination.DefaultPageSize,
		Cache: Cache{
			StaleAfter:      cache.DefaultStaleAfter,
			ExpireAfter:     cache.DefaultExpireAfter,
			JanitorSchedule: cache.DefaultJanitorSchedule,
		},
		Buckets: market.Buckets{
			Avatars:  market.DefaultAvatarBucket,
			Listings: market.DefaultListingBucket,
		},
	}
}

// Load reads .env, the optional TOML file and the environment, then validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv(FileEnv)); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&c.Port, raw.Port)
	setString(&c.ProjectID, raw.ProjectID)
	setString(&c.AppURL, raw.AppURL)
	if origins := trimAll(raw.CORSOrigins); len(origins) > 0 {
		c.CORSOrigins = origins
	}
	if raw.PageSize != 0 {
		c.PageSize = raw.PageSize
	}
	if err := setDuration(&c.Cache.StaleAfter, "cache.stale_after", raw.Cache.StaleAfter); err != nil {
		return err
	}
	if err := setDuration(&c.Cache.ExpireAfter, "cache.expire_after", raw.Cache.ExpireAfter); err != nil {
		return err
	}
	setString(&c.Cache.JanitorSchedule, raw.Cache.JanitorSchedule)
	setString(&c.Buckets.Avatars, raw.Buckets.Avatars)
	setString(&c.Buckets.Listings, raw.Buckets.Listings)
	setString(&c.Redis.Addr, raw.Redis.Addr)
	setString(&c.Redis.Password, raw.Redis.Password)
	if raw.Redis.DB != 0 {
		c.Redis.DB = raw.Redis.DB
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString(&c.Port, getenv("PORT"))
	setString(&c.ProjectID, firstNonEmpty(getenv("FIREBASE_PROJECT_ID"), getenv("GOOGLE_CLOUD_PROJECT")))
	setString(&c.CredentialsFile, getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	setString(&c.AppURL, getenv("MARKET_APP_URL"))
	if origins := trimAll(strings.Split(getenv("MARKET_CORS_ORIGINS"), ",")); len(origins) > 0 {
		c.CORSOrigins = origins
	}
	if v := strings.TrimSpace(getenv("MARKET_PAGE_SIZE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MARKET_PAGE_SIZE: %w", err)
		}
		c.PageSize = n
	}
	if err := setDuration(&c.Cache.StaleAfter, "MARKET_CACHE_STALE_AFTER", getenv("MARKET_CACHE_STALE_AFTER")); err != nil {
		return err
	}
	if err := setDuration(&c.Cache.ExpireAfter, "MARKET_CACHE_EXPIRE_AFTER", getenv("MARKET_CACHE_EXPIRE_AFTER")); err != nil {
		return err
	}
	setString(&c.Cache.JanitorSchedule, getenv("MARKET_CACHE_JANITOR"))
	setString(&c.Buckets.Avatars, getenv("MARKET_AVATAR_BUCKET"))
	setString(&c.Buckets.Listings, getenv("MARKET_LISTING_BUCKET"))
	setString(&c.Redis.Addr, getenv("REDIS_ADDR"))
	setString(&c.Redis.Password, getenv("REDIS_PASSWORD"))
	if v := strings.TrimSpace(getenv("REDIS_DB")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.Redis.DB = n
	}
	return nil
}

// Validate reports the first setting the server cannot start with.
func (c Config) Validate() error {
	if c.ProjectID == "" {
		return errors.New("project id is required: set FIREBASE_PROJECT_ID or GOOGLE_CLOUD_PROJECT")
	}
	if !strings.HasPrefix(c.AppURL, "http://") && !strings.HasPrefix(c.AppURL, "https://") {
		return fmt.Errorf("app url %q must be an http(s) URL", c.AppURL)
	}
	if c.PageSize < 1 || c.PageSize > pagination.MaxPageSize {
		return fmt.Errorf("page size %d must be between 1 and %d", c.PageSize, pagination.MaxPageSize)
	}
	if c.Cache.StaleAfter <= 0 {
		return errors.New("cache stale window must be positive")
	}
	if c.Cache.ExpireAfter < c.Cache.StaleAfter {
		return fmt.Errorf("cache expiry %s is shorter than the stale window %s", c.Cache.ExpireAfter, c.Cache.StaleAfter)
	}
	if _, err := cron.ParseStandard(c.Cache.JanitorSchedule); err != nil {
		return fmt.Errorf("cache janitor schedule %q: %w", c.Cache.JanitorSchedule, err)
	}
	if c.Buckets.Avatars == "" || c.Buckets.Listings == "" {
		return errors.New("bucket names must not be empty")
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name, v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
