package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Rate limit store backends
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Notification transports
const (
	TransportLog      = "log"
	TransportSMTP     = "smtp"
	TransportTelegram = "telegram"
)

// Config holds all configuration for the application
type Config struct {
	// Server Configuration
	Environment    string   `env:"ENV" envDefault:"development"`
	Port           string   `env:"API_PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFile        string   `env:"LOG_FILE"`
	LogRequests    bool     `env:"LOG_REQUESTS" envDefault:"false"`

	// Global flood guard in front of the contact pipeline
	GlobalRPS   float64 `env:"GLOBAL_RPS" envDefault:"10"`
	GlobalBurst int     `env:"GLOBAL_BURST" envDefault:"20"`

	// Largest accepted request body
	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"65536"`

	RateLimit RateLimitConfig
	Spam      SpamConfig
	Mail      MailConfig
	Telegram  TelegramConfig

	// Audit log of accepted submissions
	AuditLogFile string `env:"AUDIT_LOG_FILE" envDefault:"./logs/contact_submissions.log"`

	// Telemetry Configuration
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// RateLimitConfig configures per-identity throttling
type RateLimitConfig struct {
	Enabled       bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	MaxAttempts   int           `env:"RATE_LIMIT_MAX_ATTEMPTS" envDefault:"5"`
	Window        time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1h"`
	Store         string        `env:"RATE_LIMIT_STORE" envDefault:"file"`
	File          string        `env:"RATE_LIMIT_FILE"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	RedisKey      string        `env:"REDIS_KEY" envDefault:"contact:ratelimit"`
}

// SpamConfig configures the spam heuristics
type SpamConfig struct {
	HoneypotField string        `env:"SPAM_HONEYPOT_FIELD" envDefault:"website"`
	TimeThreshold time.Duration `env:"SPAM_TIME_THRESHOLD" envDefault:"3s"`
	Keywords      []string      `env:"SPAM_KEYWORDS" envSeparator:"," envDefault:"viagra,cialis,casino,poker,loan,credit"`
	KeywordsFile  string        `env:"SPAM_KEYWORDS_FILE"`
}

// MailConfig configures the outbound notification
type MailConfig struct {
	Transport     string `env:"NOTIFY_TRANSPORT" envDefault:"log"`
	To            string `env:"MAIL_TO" envDefault:"contact@example.com"`
	FromName      string `env:"MAIL_FROM_NAME" envDefault:"Website Contact Form"`
	FromEmail     string `env:"MAIL_FROM" envDefault:"noreply@example.com"`
	SubjectPrefix string `env:"MAIL_SUBJECT_PREFIX" envDefault:"[Contact] "`
	SiteName      string `env:"SITE_NAME"`
	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername  string `env:"SMTP_USERNAME"`
	SMTPPassword  string `env:"SMTP_PASSWORD"`
}

// TelegramConfig configures the Telegram transport
type TelegramConfig struct {
	BotToken string `env:"TELEGRAM_BOT_TOKEN"`
	ChatID   string `env:"TELEGRAM_CHAT_ID"`
}

// Load loads the configuration from environment variables and .env files
func Load() (*Config, error) {
	// Try multiple locations for .env file
	envLocations := []string{
		"internal/config/env/.env.development",
		".env",
	}

	// If ENV is set, try to load that specific file first
	envName := os.Getenv("ENV")
	if envName != "" {
		envLocations = append([]string{fmt.Sprintf("internal/config/env/.env.%s", envName)}, envLocations...)
	}

	for _, loc := range envLocations {
		// godotenv.Load never overrides variables already set in the process
		if err := godotenv.Load(loc); err == nil {
			break
		}
	}

	return Parse()
}

// Parse builds the configuration from the process environment only
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.AllowedOrigins = trimAll(cfg.AllowedOrigins)
	cfg.Spam.Keywords = trimAll(cfg.Spam.Keywords)

	if cfg.RateLimit.File == "" {
		cfg.RateLimit.File = filepath.Join(os.TempDir(), "contact_rate_limit.json")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports settings that cannot work together
func (c *Config) Validate() error {
	if c.RateLimit.MaxAttempts < 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_ATTEMPTS must be non-negative")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}

	switch c.RateLimit.Store {
	case StoreFile, StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("unknown RATE_LIMIT_STORE %q", c.RateLimit.Store)
	}

	switch c.Mail.Transport {
	case TransportLog:
	case TransportSMTP:
		if c.Mail.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required for the smtp transport")
		}
	case TransportTelegram:
		if c.Telegram.BotToken == "" || c.Telegram.ChatID == "" {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required for the telegram transport")
		}
	default:
		return fmt.Errorf("unknown NOTIFY_TRANSPORT %q", c.Mail.Transport)
	}

	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}

	if c.GlobalRPS <= 0 || c.GlobalBurst <= 0 {
		return fmt.Errorf("GLOBAL_RPS and GLOBAL_BURST must be positive")
	}

	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
