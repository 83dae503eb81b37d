package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	Telegram TelegramConfig
	Forward  ForwardConfig
	Dedup    DedupConfig
	HTTP     HTTPConfig
	Logging  LoggingConfig
}

// TelegramConfig governs the bot transport subscription.
type TelegramConfig struct {
	BotToken    string
	PollTimeout time.Duration
	DropPending bool
}

// ForwardConfig describes the downstream webhook sink.
type ForwardConfig struct {
	WebhookURL string
	Secret     string
	Timeout    time.Duration
}

// DedupConfig controls the at-most-once forwarding store. An empty RedisAddr
// selects the in-process store.
type DedupConfig struct {
	RedisAddr string
	TTL       time.Duration
}

// HTTPConfig governs the health endpoint server.
type HTTPConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 8080
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultForwardTimeout  = 10 * time.Second
	defaultPollTimeout     = 60 * time.Second
	defaultDedupTTL        = 24 * time.Hour
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "text"
)

var (
	// ErrMissingBotToken indicates the Telegram credential is not provided.
	ErrMissingBotToken = errors.New("TELEGRAM_BOT_TOKEN is required")
	// ErrMissingWebhookURL indicates the sink endpoint is not provided.
	ErrMissingWebhookURL = errors.New("PAYMENT_WEBHOOK_URL is required")
	// ErrMissingWebhookSecret indicates the shared secret is not provided.
	ErrMissingWebhookSecret = errors.New("PAYMENT_WEBHOOK_SECRET is required")
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Telegram: TelegramConfig{
			BotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
			PollTimeout: defaultPollTimeout,
			DropPending: parseBoolWithDefault("TELEGRAM_DROP_PENDING", true),
		},
		Forward: ForwardConfig{
			WebhookURL: os.Getenv("PAYMENT_WEBHOOK_URL"),
			Secret:     os.Getenv("PAYMENT_WEBHOOK_SECRET"),
			Timeout:    defaultForwardTimeout,
		},
		Dedup: DedupConfig{
			RedisAddr: os.Getenv("DEDUP_REDIS_ADDR"),
			TTL:       defaultDedupTTL,
		},
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
	}

	if cfg.Telegram.BotToken == "" {
		return Config{}, ErrMissingBotToken
	}
	if cfg.Forward.WebhookURL == "" {
		return Config{}, ErrMissingWebhookURL
	}
	if cfg.Forward.Secret == "" {
		return Config{}, ErrMissingWebhookSecret
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"TELEGRAM_POLL_TIMEOUT", &cfg.Telegram.PollTimeout},
		{"FORWARD_TIMEOUT", &cfg.Forward.Timeout},
		{"DEDUP_TTL", &cfg.Dedup.TTL},
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
