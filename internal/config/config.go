package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the broker and consumer binaries.
type Config struct {
	Port string
	Env  string

	// Broker
	LongPollTimeout time.Duration // server-side long-poll deadline
	MaxBodyBytes    int64         // JSON request body cap
	MaxUploadBytes  int64         // multipart upload cap

	// Consumer
	BrokerURL           string
	AuthToken           string        // bearer token, passed through unvalidated
	ProcessCommand      string        // external processing command
	PollTimeout         time.Duration // client-side; must exceed LongPollTimeout
	IdleBackoffFloor    time.Duration
	ErrorBackoffFloor   time.Duration
	BackoffCap          time.Duration
	ConsumerMetricsAddr string // optional, e.g. ":9090"
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "7080"),
		Env:                 getEnv("ENV", "development"),
		LongPollTimeout:     getDuration("LONG_POLL_TIMEOUT", 25*time.Second),
		MaxBodyBytes:        getInt64("MAX_BODY_BYTES", 10*1024*1024),
		MaxUploadBytes:      getInt64("MAX_UPLOAD_BYTES", 20*1024*1024),
		BrokerURL:           getEnv("BROKER_URL", "http://127.0.0.1:7080"),
		AuthToken:           os.Getenv("AUTH_TOKEN"),
		ProcessCommand:      os.Getenv("PROCESS_COMMAND"),
		IdleBackoffFloor:    getDuration("IDLE_BACKOFF_FLOOR", 1200*time.Millisecond),
		ErrorBackoffFloor:   getDuration("ERROR_BACKOFF_FLOOR", time.Second),
		BackoffCap:          getDuration("BACKOFF_CAP", 15*time.Second),
		ConsumerMetricsAddr: os.Getenv("CONSUMER_METRICS_ADDR"),
	}

	// The client-side poll timeout must be strictly greater than the server
	// deadline to tell "no data" from transport failure.
	cfg.PollTimeout = getDuration("POLL_TIMEOUT", cfg.LongPollTimeout+5*time.Second)
	if cfg.PollTimeout <= cfg.LongPollTimeout {
		cfg.PollTimeout = cfg.LongPollTimeout + 5*time.Second
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
