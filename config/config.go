package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Payment  PaymentConfig  `yaml:"payment"`
	Auth     AuthConfig     `yaml:"auth"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
	Mode    string `yaml:"mode"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// URL is the connection string in URL form, as expected by the migration driver.
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	PaymentWindowSeconds   int `yaml:"payment_window_seconds"`
	CarLockTTLSeconds      int `yaml:"car_lock_ttl_seconds"`
	CatalogCacheTTLSeconds int `yaml:"catalog_cache_ttl_seconds"`
}

func (b BookingConfig) PaymentWindow() time.Duration {
	return time.Duration(b.PaymentWindowSeconds) * time.Second
}

func (b BookingConfig) CarLockTTL() time.Duration {
	return time.Duration(b.CarLockTTLSeconds) * time.Second
}

func (b BookingConfig) CatalogCacheTTL() time.Duration {
	return time.Duration(b.CatalogCacheTTLSeconds) * time.Second
}

// PaymentConfig selects the payment processor. Provider "simulated" approves
// SuccessRate of the charges; "stripe" creates confirmed payment intents.
type PaymentConfig struct {
	Provider          string  `yaml:"provider"`
	SuccessRate       float64 `yaml:"success_rate"`
	ProcessingDelayMS int     `yaml:"processing_delay_ms"`
	Currency          string  `yaml:"currency"`

	StripeSecretKey     string `yaml:"stripe_secret_key"`
	StripePaymentMethod string `yaml:"stripe_payment_method"`
	StripeAPIURL        string `yaml:"stripe_api_url"`
}

func (p PaymentConfig) ProcessingDelay() time.Duration {
	return time.Duration(p.ProcessingDelayMS) * time.Millisecond
}

type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	AdminSignupKey  string `yaml:"admin_signup_key"`
}

func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

type WorkerConfig struct {
	ExpirationSweepSeconds int `yaml:"expiration_sweep_seconds"`
	CompletionSweepMinutes int `yaml:"completion_sweep_minutes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

// LoadConfig reads the YAML file at path. ${VAR} references are expanded from the
// environment before parsing, so secrets can stay in .env files.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = ":9090"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Kafka.BookingEventsTopic == "" {
		c.Kafka.BookingEventsTopic = "booking-events"
	}
	if c.Kafka.NotificationsTopic == "" {
		c.Kafka.NotificationsTopic = "booking-notifications"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "car-rental-worker"
	}
	if c.Booking.PaymentWindowSeconds == 0 {
		c.Booking.PaymentWindowSeconds = 300
	}
	if c.Booking.CarLockTTLSeconds == 0 {
		c.Booking.CarLockTTLSeconds = 10
	}
	if c.Booking.CatalogCacheTTLSeconds == 0 {
		c.Booking.CatalogCacheTTLSeconds = 60
	}
	if c.Payment.Provider == "" {
		c.Payment.Provider = "simulated"
	}
	if c.Payment.SuccessRate == 0 {
		c.Payment.SuccessRate = 0.95
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = "inr"
	}
	if c.Payment.StripePaymentMethod == "" {
		c.Payment.StripePaymentMethod = "pm_card_visa"
	}
	if c.Auth.TokenTTLMinutes == 0 {
		c.Auth.TokenTTLMinutes = 24 * 60
	}
	if c.Worker.ExpirationSweepSeconds == 0 {
		c.Worker.ExpirationSweepSeconds = 60
	}
	if c.Worker.CompletionSweepMinutes == 0 {
		c.Worker.CompletionSweepMinutes = 24 * 60
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("config: auth.jwt_secret is required")
	}
	if c.Booking.PaymentWindowSeconds < 0 {
		return errors.Newf("config: booking.payment_window_seconds must be positive, got %d", c.Booking.PaymentWindowSeconds)
	}
	if c.Payment.SuccessRate < 0 || c.Payment.SuccessRate > 1 {
		return errors.Newf("config: payment.success_rate must be within [0,1], got %v", c.Payment.SuccessRate)
	}
	switch c.Payment.Provider {
	case "simulated":
	case "stripe":
		if c.Payment.StripeSecretKey == "" {
			return errors.New("config: payment.stripe_secret_key is required for the stripe provider")
		}
	default:
		return errors.Newf("config: unknown payment.provider %q", c.Payment.Provider)
	}
	return nil
}
