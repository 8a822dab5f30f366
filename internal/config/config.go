// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/followup/pkg/db"
	"github.com/dmitrymomot/followup/pkg/logger"
	"github.com/dmitrymomot/followup/pkg/mailer/resend"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	MailDriverResend = "resend"
	MailDriverLog    = "log"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the full process configuration.
type Config struct {
	DB     db.Config
	Resend resend.Config
	Log    logger.Config
	Sentry logger.SentryConfig

	RedisURL string `env:"REDIS_URL"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	MailDriver  string `env:"MAIL_DRIVER" envDefault:"resend"`
	MailFrom    string `env:"MAIL_FROM"`

	SchedulerInterval time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"1m"`
	SendMarkTTL       time.Duration `env:"SEND_MARK_TTL" envDefault:"168h"`

	OpsAddr         string        `env:"OPS_ADDR" envDefault:":8081"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load reads .env files when present, then parses the environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return Parse(nil)
}

// Parse builds a Config from environ, or from the process environment
// when environ is nil.
func Parse(environ map[string]string) (Config, error) {
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	} else {
		opts.Environment = env.ToMap(os.Environ())
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.MailDriver = strings.ToLower(strings.TrimSpace(cfg.MailDriver))
	return cfg, cfg.Validate()
}

// ValidateMail checks the transport settings. Only commands that send
// email need them.
func (c Config) ValidateMail() error {
	if c.MailDriver == MailDriverResend && c.Resend.APIKey == "" {
		return errors.Join(ErrInvalidConfig, errors.New("RESEND_API_KEY is required for the resend mail driver"))
	}
	return nil
}

// Validate reports combinations that cannot start.
func (c Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DB.ConnectionString == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.MailDriver {
	case MailDriverResend, MailDriverLog:
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_DRIVER %q", c.MailDriver))
	}

	if c.SchedulerInterval < time.Second {
		errs = append(errs, fmt.Errorf("SCHEDULER_INTERVAL must be at least 1s, got %s", c.SchedulerInterval))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}
