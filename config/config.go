package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"senate-votes/database"
	"senate-votes/scraper"
)

type ctxKey string

const configContextKey ctxKey = "senate-votes.config"

// EnvPrefix prefixes every environment override, e.g. ROLLCALL_DATABASE_DSN.
const EnvPrefix = "rollcall"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	Database DatabaseConfig `yaml:"database" envconfig:"DATABASE"`
	Source   SourceConfig   `yaml:"source"   envconfig:"SOURCE"`
	Fetch    FetchConfig    `yaml:"fetch"    envconfig:"FETCH"`
	Server   ServerConfig   `yaml:"server"   envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging"  envconfig:"LOGGING"`
	Notify   NotifyConfig   `yaml:"notify"   envconfig:"NOTIFY"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" envconfig:"DRIVER"`
	DSN    string `yaml:"dsn"    envconfig:"DSN"`
}

type SourceConfig struct {
	ListingURL          string `yaml:"listingUrl"          envconfig:"LISTING_URL"`
	MenuPattern         string `yaml:"menuPattern"         envconfig:"MENU_PATTERN"`
	RollCallPattern     string `yaml:"rollCallPattern"     envconfig:"ROLL_CALL_PATTERN"`
	DocumentURLTemplate string `yaml:"documentUrlTemplate" envconfig:"DOCUMENT_URL_TEMPLATE"`
	RosterURL           string `yaml:"rosterUrl"           envconfig:"ROSTER_URL"`
	UserAgent           string `yaml:"userAgent"           envconfig:"USER_AGENT"`
}

// FetchConfig bounds remote fetches. Listing pages get their own, smaller
// budget.
type FetchConfig struct {
	MaxAttempts        int           `yaml:"maxAttempts"        envconfig:"MAX_ATTEMPTS"`
	Delay              time.Duration `yaml:"delay"              envconfig:"DELAY"`
	ListingMaxAttempts int           `yaml:"listingMaxAttempts" envconfig:"LISTING_MAX_ATTEMPTS"`
	ListingDelay       time.Duration `yaml:"listingDelay"       envconfig:"LISTING_DELAY"`
	Timeout            time.Duration `yaml:"timeout"            envconfig:"TIMEOUT"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" envconfig:"ADDR"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"  envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

type NotifyConfig struct {
	WebhookURL string `yaml:"webhookUrl" envconfig:"WEBHOOK_URL"`
}

func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: database.DriverSQLite,
			DSN:    "senate-votes.db",
		},
		Source: SourceConfig{
			ListingURL:          scraper.DefaultListingURL,
			MenuPattern:         scraper.DefaultMenuPattern,
			RollCallPattern:     scraper.DefaultRollCallPattern,
			DocumentURLTemplate: scraper.DefaultDocumentURLTemplate,
			RosterURL:           scraper.DefaultRosterURL,
			UserAgent:           scraper.DefaultUserAgent,
		},
		Fetch: FetchConfig{
			MaxAttempts:        100,
			Delay:              10 * time.Second,
			ListingMaxAttempts: 1,
			ListingDelay:       time.Second,
			Timeout:            30 * time.Second,
		},
		Server: ServerConfig{
			Addr: ":8090",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load overlays the YAML file, if any, and then the environment on top of
// the defaults.
func Load(configFile string) (*Config, error) {
	cfg := Default()
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case database.DriverSQLite, database.DriverPostgres:
	default:
		return fmt.Errorf("invalid database driver %q (must be %q or %q)",
			c.Database.Driver, database.DriverSQLite, database.DriverPostgres)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn must be set")
	}
	if c.Fetch.MaxAttempts < 1 || c.Fetch.ListingMaxAttempts < 1 {
		return fmt.Errorf("fetch attempts must be at least 1")
	}
	if c.Fetch.Delay < 0 || c.Fetch.ListingDelay < 0 {
		return fmt.Errorf("fetch delay must not be negative")
	}
	return nil
}
