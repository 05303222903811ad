package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Session  SessionConfig
	Booking  BookingConfig
	Stripe   StripeConfig
	Rabbit   RabbitConfig
	Metrics  MetricsConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Name            string
	Port            string
	Debug           bool
	LogPath         string
	Timezone        string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	MaxConns    int32
	AutoMigrate bool
}

type SessionConfig struct {
	TTLHours int
}

type BookingConfig struct {
	HorizonDays     int
	SlotStepMinutes int
	PlatformFeeRate decimal.Decimal
	Currency        string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// RabbitConfig with an empty URL disables the broker; webhook events are
// then handled inline.
type RabbitConfig struct {
	URL      string
	Exchange string
	Queue    string
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

type TracingConfig struct {
	Endpoint    string
	ServiceName string
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")

	// Set defaults
	v.SetDefault("APP_NAME", "diviner-booking")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("APP_TIMEZONE", "Asia/Tokyo")
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("SESSION_TTL_HOURS", 24)
	v.SetDefault("BOOKING_HORIZON_DAYS", 30)
	v.SetDefault("SLOT_STEP_MINUTES", 30)
	v.SetDefault("PLATFORM_FEE_RATE", "0.186")
	v.SetDefault("CURRENCY", "jpy")
	v.SetDefault("PAYMENT_EXCHANGE", "payment.events")
	v.SetDefault("PAYMENT_QUEUE", "booking.payment-events")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_PATH", "/metrics")
	v.SetDefault("OTEL_SERVICE_NAME", "diviner-booking")

	v.AutomaticEnv()

	// .env is optional, the environment alone is enough in containers
	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	feeRate, err := decimal.NewFromString(v.GetString("PLATFORM_FEE_RATE"))
	if err != nil {
		return nil, fmt.Errorf("parse PLATFORM_FEE_RATE: %w", err)
	}

	config := &Config{
		App: AppConfig{
			Name:            v.GetString("APP_NAME"),
			Port:            v.GetString("PORT"),
			Debug:           v.GetBool("DEBUG"),
			LogPath:         v.GetString("LOG_PATH"),
			Timezone:        v.GetString("APP_TIMEZONE"),
			ShutdownTimeout: time.Duration(v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")) * time.Second,
			CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			Name:        v.GetString("DB_NAME"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASS"),
			MaxConns:    v.GetInt32("DB_MAX_CONNS"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		Session: SessionConfig{
			TTLHours: v.GetInt("SESSION_TTL_HOURS"),
		},
		Booking: BookingConfig{
			HorizonDays:     v.GetInt("BOOKING_HORIZON_DAYS"),
			SlotStepMinutes: v.GetInt("SLOT_STEP_MINUTES"),
			PlatformFeeRate: feeRate,
			Currency:        v.GetString("CURRENCY"),
		},
		Stripe: StripeConfig{
			SecretKey:     v.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
		},
		Rabbit: RabbitConfig{
			URL:      v.GetString("RABBIT_URL"),
			Exchange: v.GetString("PAYMENT_EXCHANGE"),
			Queue:    v.GetString("PAYMENT_QUEUE"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
			Path:    v.GetString("METRICS_PATH"),
		},
		Tracing: TracingConfig{
			Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName: v.GetString("OTEL_SERVICE_NAME"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks the values the booking core depends on.
func (c *Config) Validate() error {
	if c.Booking.PlatformFeeRate.IsNegative() || c.Booking.PlatformFeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("PLATFORM_FEE_RATE must be in [0, 1), got %s", c.Booking.PlatformFeeRate)
	}
	if c.Booking.HorizonDays < 1 {
		return fmt.Errorf("BOOKING_HORIZON_DAYS must be positive, got %d", c.Booking.HorizonDays)
	}
	if c.Booking.SlotStepMinutes < 5 || c.Booking.SlotStepMinutes > 240 {
		return fmt.Errorf("SLOT_STEP_MINUTES must be between 5 and 240, got %d", c.Booking.SlotStepMinutes)
	}
	if c.Session.TTLHours < 1 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive, got %d", c.Session.TTLHours)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the marketplace time zone used for availability windows.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}
