// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers an optional YAML file and PATABOL_* env vars on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// PoolSize is the number of players generated for each session.
	PoolSize int `koanf:"pool_size"`

	// MaxPoolListing caps how many players an unfiltered /pool shows.
	MaxPoolListing int `koanf:"max_pool_listing"`

	// EventDelayMS paces match feed delivery, one item per delay.
	EventDelayMS int `koanf:"event_delay_ms"`

	// WorkerCount sets the number of match workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory match job queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize bounds the inbound message id cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the number of shards in the session store.
	ShardCount int `koanf:"shard_count"`

	// Seed fixes the random source; 0 draws a fresh seed at startup.
	Seed int64 `koanf:"seed"`

	// NATSURL enables NATS feed fan-out when non-empty.
	NATSURL string `koanf:"nats_url"`

	// NATSSubjectPrefix prefixes every published subject.
	NATSSubjectPrefix string `koanf:"nats_subject_prefix"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		PoolSize:          15,
		MaxPoolListing:    15,
		EventDelayMS:      2000,
		WorkerCount:       4,
		QueueSize:         1024,
		DedupeSize:        50_000,
		ShardCount:        16,
		Seed:              0,
		NATSURL:           "",
		NATSSubjectPrefix: "patabol",
	}
}

// EventDelay returns EventDelayMS as a duration.
func (c *Config) EventDelay() time.Duration {
	return time.Duration(c.EventDelayMS) * time.Millisecond
}
