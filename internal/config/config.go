package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Skotchmaster/bookstore/internal/service"
)

const (
	ResetStorePostgres = "postgres"
	ResetStoreRedis    = "redis"

	NotifierLog   = "log"
	NotifierKafka = "kafka"
	NotifierAMQP  = "amqp"

	minSigningKeyLen = 32
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"production"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"bookstore-auth"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	AutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`

	JWT JWT `envPrefix:"JWT_"`

	AdminSecretKey  string `env:"ADMIN_SECRET_KEY,required,notEmpty"`
	BcryptCost      int    `env:"BCRYPT_COST" envDefault:"12"`
	HashConcurrency int    `env:"HASH_CONCURRENCY" envDefault:"4"`

	ResetPasswordURL   string        `env:"RESET_PASSWORD_URL,required"`
	ResetStore         string        `env:"RESET_STORE" envDefault:"postgres"`
	ResetPurgeInterval time.Duration `env:"RESET_PURGE_INTERVAL" envDefault:"15m"`

	Redis     Redis    `envPrefix:"REDIS_"`
	Notifiers []string `env:"NOTIFIERS" envDefault:"log" envSeparator:","`
	Kafka     Kafka    `envPrefix:"KAFKA_"`
	RabbitMQ  RabbitMQ `envPrefix:"RABBITMQ_"`
}

type JWT struct {
	SigningKey string `env:"SIGNING_KEY,required,notEmpty"`
	Issuer     string `env:"ISSUER,required,notEmpty"`
	Audience   string `env:"AUDIENCE,required,notEmpty"`
}

type Redis struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type Kafka struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"user_events"`
}

type RabbitMQ struct {
	URL        string `env:"URL"`
	ResetQueue string `env:"RESET_QUEUE" envDefault:"password_reset_notifications"`
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		slog.Debug("no .env file, using process environment", "error", err)
	}
	return Parse(nil)
}

// Parse builds a Config from environ, or from the process environment when
// environ is nil.
func Parse(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrConfiguration, err)
	}

	cfg.Notifiers = compact(cfg.Notifiers, strings.ToLower)
	cfg.Kafka.Brokers = compact(cfg.Kafka.Brokers, nil)
	cfg.ResetStore = strings.ToLower(strings.TrimSpace(cfg.ResetStore))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.JWT.SigningKey) == "" {
		problems = append(problems, "JWT_SIGNING_KEY is empty")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		problems = append(problems, fmt.Sprintf("BCRYPT_COST %d out of range [4, 31]", c.BcryptCost))
	}
	if c.HashConcurrency < 1 {
		problems = append(problems, "HASH_CONCURRENCY must be positive")
	}
	if u, err := url.Parse(c.ResetPasswordURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, "RESET_PASSWORD_URL must be an absolute URL")
	}
	if c.ResetStore != ResetStorePostgres && c.ResetStore != ResetStoreRedis {
		problems = append(problems, fmt.Sprintf("RESET_STORE %q is not postgres or redis", c.ResetStore))
	}
	if c.ResetPurgeInterval <= 0 {
		problems = append(problems, "RESET_PURGE_INTERVAL must be positive")
	}

	for _, n := range c.Notifiers {
		switch n {
		case NotifierLog:
		case NotifierKafka:
			if len(c.Kafka.Brokers) == 0 {
				problems = append(problems, "NOTIFIERS includes kafka but KAFKA_BROKERS is empty")
			}
		case NotifierAMQP:
			if c.RabbitMQ.URL == "" {
				problems = append(problems, "NOTIFIERS includes amqp but RABBITMQ_URL is empty")
			}
		default:
			problems = append(problems, fmt.Sprintf("unknown notifier %q", n))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", service.ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// WeakSigningKey reports a signing key shorter than 32 bytes. It is allowed
// but logged at startup.
func (c *Config) WeakSigningKey() bool {
	return len(c.JWT.SigningKey) < minSigningKeyLen
}

func (c *Config) NotifierEnabled(name string) bool {
	return slices.Contains(c.Notifiers, name)
}

// compact trims entries, drops empty and repeated ones and applies norm.
func compact(in []string, norm func(string) string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if norm != nil {
			v = norm(v)
		}
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
