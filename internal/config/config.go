// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token   string `yaml:"token"`
	OwnerID string `yaml:"owner_id"`
	Prefix  string `yaml:"prefix"`  // command prefix, "!" by default
	Workers int    `yaml:"workers"` // message handler workers
	// Commands allowed per principal per window; 0 disables the limiter.
	RateLimit       int           `yaml:"rate_limit"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`
	Language        string        `yaml:"language"` // en | pt-BR
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	AdminAPIKey    string        `yaml:"admin_api_key"`
	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

// RedisConfig is optional; an empty URL keeps locking and rate limiting in process.
type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type PaymentConfig struct {
	DefaultAmount string `yaml:"default_amount"`
	DefaultMethod string `yaml:"default_method"`
	DefaultPlan   string `yaml:"default_plan"`
	// PendingTTL expires pending payments older than this; 0 disables expiry.
	PendingTTL     time.Duration `yaml:"pending_ttl"`
	ExpiryInterval time.Duration `yaml:"expiry_interval"`
}

type KeysConfig struct {
	Length          int           `yaml:"length"`
	MaxAttempts     int           `yaml:"max_attempts"`
	TotalLimit      int           `yaml:"total_limit"`
	IssueOnConfirm  bool          `yaml:"issue_on_confirm"`
	DefaultDuration string        `yaml:"default_duration"`
	SweepInterval   time.Duration `yaml:"sweep_interval"`
}

type BackupConfig struct {
	Dir       string `yaml:"dir"`
	Product   string `yaml:"product"`
	Retention int    `yaml:"retention"`
	// AutoHours starts the recurring backup at boot when > 0.
	AutoHours  int    `yaml:"auto_hours"`
	PgDumpPath string `yaml:"pg_dump_path"`
	PsqlPath   string `yaml:"psql_path"`
}

type MercadoPagoConfig struct {
	AccessToken string `yaml:"access_token"`
	BaseURL     string `yaml:"base_url"`
}

type PagSeguroConfig struct {
	Email   string `yaml:"email"`
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

type WebhookConfig struct {
	// Secrets maps a gateway name to the HMAC secret its calls are signed with.
	Secrets         map[string]string `yaml:"secrets"`
	SignatureHeader string            `yaml:"signature_header"`
	MercadoPago     MercadoPagoConfig `yaml:"mercadopago"`
	PagSeguro       PagSeguroConfig   `yaml:"pagseguro"`
}

// TelegramConfig enables the optional operator alert mirror.
type TelegramConfig struct {
	Token          string `yaml:"token"`
	OperatorChatID int64  `yaml:"operator_chat_id"`
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Payment  PaymentConfig  `yaml:"payment"`
	Keys     KeysConfig     `yaml:"keys"`
	Backup   BackupConfig   `yaml:"backup"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Telegram TelegramConfig `yaml:"telegram"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig loads the configuration and validates what the bot process needs.
func LoadConfig(path string, dev bool) (*Config, error) {
	cfg, err := Load(path, dev)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads .env (if present), the YAML file at path, then applies
// environment overrides and defaults. A missing YAML file is allowed when the
// environment carries the required values.
func Load(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"DISCORD_TOKEN":          &cfg.Bot.Token,
		"OWNER_ID":               &cfg.Bot.OwnerID,
		"DATABASE_URL":           &cfg.Database.URL,
		"ADMIN_API_KEY":          &cfg.HTTP.AdminAPIKey,
		"JWT_SECRET":             &cfg.HTTP.JWTSecret,
		"REDIS_URL":              &cfg.Redis.URL,
		"REDIS_PASSWORD":         &cfg.Redis.Password,
		"TELEGRAM_TOKEN":         &cfg.Telegram.Token,
		"MP_ACCESS_TOKEN":        &cfg.Webhook.MercadoPago.AccessToken,
		"PAGSEGURO_EMAIL":        &cfg.Webhook.PagSeguro.Email,
		"PAGSEGURO_TOKEN":        &cfg.Webhook.PagSeguro.Token,
		"BACKUP_DIR":             &cfg.Backup.Dir,
		"BOT_LANGUAGE":           &cfg.Bot.Language,
		"LOG_LEVEL":              &cfg.Log.Level,
		"BACKUP_PRODUCT":         &cfg.Backup.Product,
		"PG_DUMP_PATH":           &cfg.Backup.PgDumpPath,
		"PSQL_PATH":              &cfg.Backup.PsqlPath,
		"PAYMENT_DEFAULT_AMOUNT": &cfg.Payment.DefaultAmount,
	}
	for env, dst := range str {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		cfg.HTTP.Port = port
	}
	if v := os.Getenv("TELEGRAM_OPERATOR_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_OPERATOR_CHAT_ID: %w", err)
		}
		cfg.Telegram.OperatorChatID = id
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Prefix == "" {
		cfg.Bot.Prefix = "!"
	}
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.RateLimitWindow <= 0 {
		cfg.Bot.RateLimitWindow = time.Minute
	}
	if cfg.Bot.Language == "" {
		cfg.Bot.Language = "pt-BR"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 3000
	}
	if cfg.HTTP.TokenTTL <= 0 {
		cfg.HTTP.TokenTTL = 30 * time.Minute
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 15 * time.Second
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Redis.LockTTL <= 0 {
		cfg.Redis.LockTTL = 30 * time.Second
	}
	if cfg.Payment.DefaultAmount == "" {
		cfg.Payment.DefaultAmount = "25.00"
	}
	if cfg.Payment.DefaultMethod == "" {
		cfg.Payment.DefaultMethod = "PIX"
	}
	if cfg.Payment.DefaultPlan == "" {
		cfg.Payment.DefaultPlan = "Standard"
	}
	if cfg.Payment.ExpiryInterval <= 0 {
		cfg.Payment.ExpiryInterval = 5 * time.Minute
	}
	if cfg.Keys.Length <= 0 {
		cfg.Keys.Length = 16
	}
	if cfg.Keys.MaxAttempts <= 0 {
		cfg.Keys.MaxAttempts = 16
	}
	if cfg.Keys.TotalLimit <= 0 {
		cfg.Keys.TotalLimit = 100
	}
	if cfg.Keys.DefaultDuration == "" {
		cfg.Keys.DefaultDuration = "weekly"
	}
	if cfg.Keys.SweepInterval <= 0 {
		cfg.Keys.SweepInterval = time.Hour
	}
	if cfg.Backup.Dir == "" {
		cfg.Backup.Dir = "backups"
	}
	if cfg.Backup.Product == "" {
		cfg.Backup.Product = "ecstasy_bot"
	}
	if cfg.Backup.Retention <= 0 {
		cfg.Backup.Retention = 7
	}
	if cfg.Backup.PgDumpPath == "" {
		cfg.Backup.PgDumpPath = "pg_dump"
	}
	if cfg.Backup.PsqlPath == "" {
		cfg.Backup.PsqlPath = "psql"
	}
	if cfg.Webhook.SignatureHeader == "" {
		cfg.Webhook.SignatureHeader = "X-Signature"
	}
	if cfg.Webhook.MercadoPago.BaseURL == "" {
		cfg.Webhook.MercadoPago.BaseURL = "https://api.mercadopago.com"
	}
	if cfg.Webhook.PagSeguro.BaseURL == "" {
		cfg.Webhook.PagSeguro.BaseURL = "https://ws.pagseguro.uol.com.br"
	}
}

// Validate checks the values every entry point needs.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return errors.New("bot.token is required")
	}
	if c.Bot.OwnerID == "" {
		return errors.New("bot.owner_id is required")
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Backup.AutoHours < 0 || c.Backup.AutoHours > 168 {
		return errors.New("backup.auto_hours must be between 0 and 168")
	}
	return nil
}
