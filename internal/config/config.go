package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/liamashdown/wardai/internal/secrets"
)

// CooldownBackend selects where alert cooldowns are kept
type CooldownBackend string

const (
	CooldownMemory CooldownBackend = "memory"
	CooldownRedis  CooldownBackend = "redis"
)

// Config holds all application configuration
type Config struct {
	// Environment
	Environment string
	LogLevel    string

	// HTTP server
	HTTPPort         int
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	// DexScreener
	DexScreenerBaseURL string
	DexScreenerRPS     float64
	DexScreenerBurst   int
	DexScreenerTimeout time.Duration
	DexScreenerRetries int
	ChainID            string

	// Live-alert monitor
	MonitorEnabled   bool
	PollIntervalSec  int
	MonitorMaxTokens int
	MonitorWorkers   int
	AlertCooldown    time.Duration
	FeedSize         int

	// Cooldown store
	CooldownBackend CooldownBackend
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisKeyPrefix  string

	// History database, disabled when DatabaseDSN is empty
	DatabaseDSN         string
	DatabaseMaxConns    int
	DatabaseMaxIdleTime time.Duration

	// Alerts
	AlertMode          string // comma-separated: log, discord, smtp
	DiscordWebhookURLs []string
	SMTPHost           string
	SMTPPort           int
	SMTPUser           string
	SMTPPassword       string
	SMTPFrom           string
	SMTPTo             []string
}

// Load reads configuration from the environment. A .env file (or the file
// named by ENV_FILE) is loaded first when present; existing variables win.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := &Config{
		Environment:         getEnv("ENVIRONMENT", "production"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		HTTPPort:            getEnvInt("HTTP_PORT", 8080),
		HTTPReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 5*time.Second),
		HTTPWriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 20*time.Second),
		DexScreenerBaseURL:  getEnv("DEXSCREENER_BASE_URL", "https://api.dexscreener.com"),
		DexScreenerRPS:      getEnvFloat("DEXSCREENER_RPS", 5.0),
		DexScreenerBurst:    getEnvInt("DEXSCREENER_BURST", 5),
		DexScreenerTimeout:  getEnvDuration("DEXSCREENER_TIMEOUT", 10*time.Second),
		DexScreenerRetries:  getEnvInt("DEXSCREENER_RETRIES", 2),
		ChainID:             getEnv("CHAIN_ID", "solana"),
		MonitorEnabled:      getEnvBool("MONITOR_ENABLED", true),
		PollIntervalSec:     getEnvInt("POLL_INTERVAL_SEC", 30),
		MonitorMaxTokens:    getEnvInt("MONITOR_MAX_TOKENS", 10),
		MonitorWorkers:      getEnvInt("MONITOR_WORKERS", 4),
		AlertCooldown:       getEnvDuration("ALERT_COOLDOWN", 2*time.Minute),
		FeedSize:            getEnvInt("FEED_SIZE", 3),
		CooldownBackend:     CooldownBackend(getEnv("COOLDOWN_BACKEND", string(CooldownMemory))),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       secrets.Optional("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix:      getEnv("REDIS_KEY_PREFIX", "wardai:cooldown:"),
		DatabaseDSN:         secrets.Optional("DATABASE_DSN", ""),
		DatabaseMaxConns:    getEnvInt("DATABASE_MAX_CONNS", 10),
		DatabaseMaxIdleTime: time.Duration(getEnvInt("DATABASE_MAX_IDLE_TIME_MINS", 5)) * time.Minute,
		AlertMode:           getEnv("ALERT_MODE", "log"),
		DiscordWebhookURLs:  parseCSV(secrets.Optional("DISCORD_WEBHOOK_URLS", "")),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            getEnvInt("SMTP_PORT", 587),
		SMTPUser:            getEnv("SMTP_USER", ""),
		SMTPPassword:        secrets.Optional("SMTP_PASSWORD", ""),
		SMTPFrom:            getEnv("SMTP_FROM", "wardai@example.com"),
		SMTPTo:              parseCSV(getEnv("SMTP_TO", "")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// AlertModes returns the configured alert modes, trimmed
func (c *Config) AlertModes() []string {
	return parseCSV(c.AlertMode)
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT: %d", c.HTTPPort)
	}
	if c.DexScreenerBaseURL == "" {
		return fmt.Errorf("DEXSCREENER_BASE_URL is required")
	}
	if c.PollIntervalSec <= 0 {
		return fmt.Errorf("POLL_INTERVAL_SEC must be positive, got %d", c.PollIntervalSec)
	}
	if c.MonitorWorkers <= 0 {
		return fmt.Errorf("MONITOR_WORKERS must be positive, got %d", c.MonitorWorkers)
	}
	if c.FeedSize <= 0 {
		return fmt.Errorf("FEED_SIZE must be positive, got %d", c.FeedSize)
	}
	if c.MonitorMaxTokens <= 0 {
		return fmt.Errorf("MONITOR_MAX_TOKENS must be positive, got %d", c.MonitorMaxTokens)
	}
	if c.AlertCooldown <= 0 {
		return fmt.Errorf("ALERT_COOLDOWN must be positive, got %s", c.AlertCooldown)
	}

	switch c.CooldownBackend {
	case CooldownMemory:
	case CooldownRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when COOLDOWN_BACKEND is redis")
		}
	default:
		return fmt.Errorf("invalid COOLDOWN_BACKEND: %s (must be memory or redis)", c.CooldownBackend)
	}

	modes := c.AlertModes()
	if len(modes) == 0 {
		return fmt.Errorf("ALERT_MODE must name at least one mode")
	}
	for _, mode := range modes {
		switch mode {
		case "log":
		case "discord":
			if len(c.DiscordWebhookURLs) == 0 {
				return fmt.Errorf("DISCORD_WEBHOOK_URLS is required when discord is in ALERT_MODE")
			}
		case "smtp":
			if c.SMTPHost == "" {
				return fmt.Errorf("SMTP_HOST is required when smtp is in ALERT_MODE")
			}
			if len(c.SMTPTo) == 0 {
				return fmt.Errorf("SMTP_TO is required when smtp is in ALERT_MODE")
			}
		default:
			return fmt.Errorf("invalid ALERT_MODE value: %s (valid values: log, discord, smtp)", mode)
		}
	}

	return nil
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or bare seconds ("90")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func parseCSV(s string) []string {
	var result []string
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
