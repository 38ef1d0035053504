package config

import (
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port    string `env:"PORT,default=8080"`
	GinMode string `env:"GIN_MODE"`

	DatabaseDriver  string        `env:"DATABASE_DRIVER,default=sqlite"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,default=720h"`

	RazorpayKeyID     string `env:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `env:"RAZORPAY_KEY_SECRET"`
	RazorpayBaseURL   string `env:"RAZORPAY_BASE_URL,default=https://api.razorpay.com"`
	PaymentCurrency   string `env:"PAYMENT_CURRENCY,default=INR"`

	SMTPHost      string `env:"SMTP_HOST,default=smtp.gmail.com"`
	SMTPPort      int    `env:"SMTP_PORT,default=587"`
	EmailUser     string `env:"EMAIL_USER"`
	EmailPass     string `env:"EMAIL_PASS"`
	EmailFromName string `env:"EMAIL_FROM_NAME,default=Hydrox Movers & Packers"`
	FrontendURL   string `env:"FRONTEND_URL,default=http://localhost:5173"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	AnalyticsTimezone string `env:"ANALYTICS_TIMEZONE,default=UTC"`

	AuthRateLimitRPS   float64 `env:"AUTH_RATE_LIMIT_RPS,default=5"`
	AuthRateLimitBurst int     `env:"AUTH_RATE_LIMIT_BURST,default=10"`

	SuperadminEmail    string `env:"SUPERADMIN_EMAIL"`
	SuperadminPassword string `env:"SUPERADMIN_PASSWORD"`
	SuperadminName     string `env:"SUPERADMIN_NAME,default=Platform Operator"`
}

// Load reads an optional .env file and decodes the environment.
// A missing DATABASE_URL or JWT_SECRET is an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Annotate(err, "load .env")
	}
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, errors.Annotate(err, "decode environment")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.NewNotValid(nil, "DATABASE_URL is not defined in environment variables")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.NewNotValid(nil, "JWT_SECRET is not defined in environment variables")
	}
	return &cfg, nil
}

// Location returns the time zone used for analytics buckets.
func (c *Config) Location() (*time.Location, error) {
	if c.AnalyticsTimezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.AnalyticsTimezone)
	if err != nil {
		return nil, errors.Annotatef(err, "ANALYTICS_TIMEZONE %q", c.AnalyticsTimezone)
	}
	return loc, nil
}

// EmailEnabled reports whether SMTP credentials are present.
func (c *Config) EmailEnabled() bool {
	return c.EmailUser != "" && c.EmailPass != ""
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(c *Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
