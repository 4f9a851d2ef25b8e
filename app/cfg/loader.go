package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

const (
	defaultDataDirName  = "zulip-rss"
	defaultFeedFileName = "rss-feeds"
	defaultSQLiteName   = "seen.db"
	defaultZuliprcName  = ".zuliprc"
)

type rawCfg struct {
	// Storage configuration
	DataDir     string `long:"data-dir" env:"RSS_DATA_DIR" description:"Directory holding seen-entry state (default: <user cache dir>/zulip-rss)"`
	FeedFile    string `long:"feed-file" env:"RSS_FEED_FILE" description:"File listing feed URLs, one per line, or a .yml feed list (default: <data-dir>/rss-feeds)"`
	Store       string `long:"store" env:"RSS_STORE" default:"file" choice:"file" choice:"sqlite" choice:"redis" description:"Seen-entry storage backend"`
	SQLitePath  string `long:"sqlite-path" env:"RSS_SQLITE_PATH" description:"SQLite database path for --store=sqlite (default: <data-dir>/seen.db)"`
	RedisURL    string `long:"redis-url" env:"REDIS_URL" description:"Redis URL or address for --store=redis"`
	RedisPrefix string `long:"redis-prefix" env:"RSS_REDIS_PREFIX" default:"rss-relay" description:"Key prefix for --store=redis"`
	StateKey    string `long:"state-key" env:"RSS_STATE_KEY" default:"host" choice:"host" choice:"url" description:"Derive the seen-entry key from the feed host or from the full feed URL"`

	// Zulip configuration
	ZulipSite   string `long:"zulip-site" env:"ZULIP_SITE" description:"Zulip server URL"`
	ZulipEmail  string `long:"zulip-email" env:"ZULIP_EMAIL" description:"Bot email address"`
	ZulipAPIKey string `long:"zulip-api-key" env:"ZULIP_API_KEY" description:"Bot API key"`
	Zuliprc     string `long:"zuliprc" env:"ZULIP_CONFIG" description:"zuliprc file with an [api] section (default: ~/.zuliprc when present)"`
	Topic       string `long:"topic" env:"RSS_TOPIC" default:"rss" description:"Topic for feed messages"`

	// Message rendering
	Unwrap bool `long:"unwrap" env:"RSS_UNWRAP" description:"Convert word-wrapped paragraphs into single lines"`
	Math   bool `long:"math" env:"RSS_MATH" description:"Convert $ to $$ for KaTeX processing"`

	// Deduplication policy
	MaxAge         time.Duration `long:"max-age" env:"RSS_MAX_AGE" default:"720h" description:"Entries older than this are never sent"`
	BootstrapLimit int           `long:"bootstrap-limit" env:"RSS_BOOTSTRAP_LIMIT" default:"3" description:"Maximum entries sent for a feed seen for the first time"`

	// Network
	FetchTimeout time.Duration `long:"fetch-timeout" env:"RSS_FETCH_TIMEOUT" default:"30s" description:"Timeout for fetching a feed"`
	SendTimeout  time.Duration `long:"send-timeout" env:"RSS_SEND_TIMEOUT" default:"30s" description:"Timeout for sending a message"`
	UserAgent    string        `long:"user-agent" env:"USER_AGENT" default:"RSS Relay/1.0" description:"User agent string for HTTP requests"`

	// Daemon mode
	Schedule string `long:"schedule" env:"RSS_SCHEDULE" description:"Cron expression; when set the process keeps running and polls on this schedule"`
	Listen   string `long:"listen" env:"RSS_LISTEN" description:"Address for the status API in daemon mode (e.g. :8080)"`

	// Application metadata
	LogFile string `long:"log-file" env:"RSS_LOG_FILE" description:"Append logs to this file as well as stderr"`
	Debug   bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// zuliprc mirrors the [api] section of a Zulip client configuration file.
type zuliprc struct {
	API struct {
		Email string `long:"email" ini-name:"email"`
		Key   string `long:"key" ini-name:"key"`
		Site  string `long:"site" ini-name:"site"`
	} `group:"api"`
}

// Load reads configuration from .env, environment variables and command-line flags.
// It returns nil, nil when help was requested.
func Load() (*Cfg, error) {
	_ = godotenv.Load()
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DataDir:        raw.DataDir,
		FeedFile:       raw.FeedFile,
		Store:          raw.Store,
		SQLitePath:     raw.SQLitePath,
		RedisURL:       raw.RedisURL,
		RedisPrefix:    raw.RedisPrefix,
		StateKey:       raw.StateKey,
		ZulipSite:      raw.ZulipSite,
		ZulipEmail:     raw.ZulipEmail,
		ZulipAPIKey:    raw.ZulipAPIKey,
		Topic:          raw.Topic,
		Unwrap:         raw.Unwrap,
		Math:           raw.Math,
		MaxAge:         raw.MaxAge,
		BootstrapLimit: raw.BootstrapLimit,
		FetchTimeout:   raw.FetchTimeout,
		SendTimeout:    raw.SendTimeout,
		UserAgent:      raw.UserAgent,
		Schedule:       raw.Schedule,
		Listen:         raw.Listen,
		LogFile:        raw.LogFile,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if err := applyZuliprc(cfg, raw.Zuliprc); err != nil {
		return nil, err
	}

	if err := applyPathDefaults(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyZuliprc fills Zulip credentials that were not given on the command line
// or in the environment.
func applyZuliprc(cfg *Cfg, path string) error {
	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, defaultZuliprcName)
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}

	var rc zuliprc
	parser := flags.NewParser(&rc, flags.IgnoreUnknown)
	if err := flags.NewIniParser(parser).ParseFile(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read zuliprc %s: %w", path, err)
	}

	cfg.ZulipSite = cmp.Or(cfg.ZulipSite, rc.API.Site)
	cfg.ZulipEmail = cmp.Or(cfg.ZulipEmail, rc.API.Email)
	cfg.ZulipAPIKey = cmp.Or(cfg.ZulipAPIKey, rc.API.Key)

	return nil
}

func applyPathDefaults(cfg *Cfg) error {
	if cfg.DataDir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return fmt.Errorf("failed to resolve default data directory: %w", err)
		}
		cfg.DataDir = filepath.Join(cacheDir, defaultDataDirName)
	}

	cfg.FeedFile = cmp.Or(cfg.FeedFile, filepath.Join(cfg.DataDir, defaultFeedFileName))
	cfg.SQLitePath = cmp.Or(cfg.SQLitePath, filepath.Join(cfg.DataDir, defaultSQLiteName))

	return nil
}

func validate(cfg *Cfg) error {
	requiredFields := []struct {
		name  string
		value string
	}{
		{"zulip site", cfg.ZulipSite},
		{"zulip email", cfg.ZulipEmail},
		{"zulip API key", cfg.ZulipAPIKey},
	}

	for _, field := range requiredFields {
		if field.value == "" {
			return fmt.Errorf("%s is required", field.name)
		}
	}

	site, err := url.Parse(cfg.ZulipSite)
	if err != nil || site.Host == "" {
		return fmt.Errorf("zulip site must be an absolute URL: %q", cfg.ZulipSite)
	}

	if cfg.Store == "redis" && cfg.RedisURL == "" {
		return fmt.Errorf("redis URL is required for the redis store")
	}

	if cfg.MaxAge <= 0 {
		return fmt.Errorf("max age must be positive")
	}
	if cfg.BootstrapLimit < 1 {
		return fmt.Errorf("bootstrap limit must be at least 1")
	}

	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
		}
	}
	if cfg.Listen != "" && cfg.Schedule == "" {
		return fmt.Errorf("status API requires --schedule")
	}

	return nil
}
