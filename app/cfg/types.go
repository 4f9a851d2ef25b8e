package cfg

import "time"

type Cfg struct {
	// Storage configuration
	DataDir     string
	FeedFile    string
	Store       string
	SQLitePath  string
	RedisURL    string
	RedisPrefix string
	StateKey    string

	// Zulip configuration
	ZulipSite   string
	ZulipEmail  string
	ZulipAPIKey string
	Topic       string

	// Message rendering
	Unwrap bool
	Math   bool

	// Deduplication policy
	MaxAge         time.Duration
	BootstrapLimit int

	// Network
	FetchTimeout time.Duration
	SendTimeout  time.Duration
	UserAgent    string

	// Daemon mode
	Schedule string
	Listen   string

	// Application metadata
	LogFile string
	Debug   bool
	Version string
}

// Daemon reports whether runs are driven by the built-in scheduler.
func (c *Cfg) Daemon() bool {
	return c.Schedule != ""
}
