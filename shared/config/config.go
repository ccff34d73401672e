package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	// StoreMemory keeps users in process memory. Development only.
	StoreMemory = "memory"

	// NotificationQueue is the durable queue consumed by the notification service.
	NotificationQueue = "notification_requests"

	developmentJWTSecret = "development-only-secret-change-me"
)

type Common struct {
	AppEnv   string
	LogLevel string
	Port     string
}

func (c Common) Development() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type UserServiceConfig struct {
	Common
	StoreDriver   string
	MongoURI      string
	MongoDatabase string
	DatabaseURL   string
	JWTSecret     []byte
	JWTExpiresIn  time.Duration
	Redis         RedisConfig
}

type NotificationServiceConfig struct {
	Common
	RabbitMQURL         string
	Prefetch            int
	ReconnectDelay      time.Duration
	Redis               RedisConfig
	ResendAPIKey        string
	FromEmail           string
	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioPhoneNumber   string
	FirebaseCredentials string
	WelcomeEmailEnabled bool
	WelcomeEmailSubject string
	// HTTPSendEnabled mounts the direct /api/notifications endpoints.
	HTTPSendEnabled bool
}

type GatewayConfig struct {
	Common
	UserServiceURL         string
	NotificationServiceURL string
}

// loadEnv reads an optional .env file and returns a viper instance bound to
// the process environment.
func loadEnv() *viper.Viper {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "config: ignoring unreadable .env: %v\n", err)
	}
	return newViper()
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")
	return v
}

func common(v *viper.Viper, defaultPort string) Common {
	v.SetDefault("PORT", defaultPort)
	return Common{
		AppEnv:   v.GetString("APP_ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),
		Port:     v.GetString("PORT"),
	}
}

func redisConfig(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Addr:     v.GetString("REDIS_ADDR"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}
}

func LoadUserService() (*UserServiceConfig, error) {
	return loadUserService(loadEnv())
}

func loadUserService(v *viper.Viper) (*UserServiceConfig, error) {
	v.SetDefault("STORE_DRIVER", StoreMongo)
	v.SetDefault("MONGO_DATABASE", "user_management")
	v.SetDefault("JWT_EXPIRES_IN", "1h")

	cfg := &UserServiceConfig{
		Common:        common(v, "3001"),
		StoreDriver:   strings.ToLower(v.GetString("STORE_DRIVER")),
		MongoURI:      v.GetString("MONGO_URI"),
		MongoDatabase: v.GetString("MONGO_DATABASE"),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		Redis:         redisConfig(v),
	}

	switch cfg.StoreDriver {
	case StoreMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New("MONGO_URI is not defined in environment variables")
		}
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is not defined in environment variables")
		}
	case StoreMemory:
		if !cfg.Development() {
			return nil, errors.New("STORE_DRIVER=memory is only allowed when APP_ENV=development")
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	secret := v.GetString("JWT_SECRET")
	if secret == "" {
		if !cfg.Development() {
			return nil, errors.New("JWT_SECRET environment variable is not set")
		}
		secret = developmentJWTSecret
	}
	cfg.JWTSecret = []byte(secret)

	ttl, err := ParseExpiry(v.GetString("JWT_EXPIRES_IN"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err)
	}
	cfg.JWTExpiresIn = ttl

	return cfg, nil
}

func LoadNotificationService() (*NotificationServiceConfig, error) {
	return loadNotificationService(loadEnv())
}

func loadNotificationService(v *viper.Viper) (*NotificationServiceConfig, error) {
	v.SetDefault("RABBITMQ_URL", "amqp://localhost:5672")
	v.SetDefault("RABBITMQ_PREFETCH", 10)
	v.SetDefault("RABBITMQ_RECONNECT_DELAY", "5s")
	v.SetDefault("WELCOME_EMAIL_SUBJECT", "Welcome to Campusline")

	base := common(v, "3002")
	v.SetDefault("NOTIFICATION_HTTP_SEND_ENABLED", base.Development())

	cfg := &NotificationServiceConfig{
		Common:              base,
		RabbitMQURL:         v.GetString("RABBITMQ_URL"),
		Prefetch:            v.GetInt("RABBITMQ_PREFETCH"),
		ReconnectDelay:      v.GetDuration("RABBITMQ_RECONNECT_DELAY"),
		Redis:               redisConfig(v),
		ResendAPIKey:        v.GetString("RESEND_API_KEY"),
		FromEmail:           v.GetString("FROM_EMAIL"),
		TwilioAccountSID:    v.GetString("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:     v.GetString("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber:   v.GetString("TWILIO_PHONE_NUMBER"),
		FirebaseCredentials: v.GetString("FIREBASE_SERVICE_ACCOUNT_PATH"),
		WelcomeEmailEnabled: v.GetBool("WELCOME_EMAIL_ENABLED"),
		WelcomeEmailSubject: v.GetString("WELCOME_EMAIL_SUBJECT"),
		HTTPSendEnabled:     v.GetBool("NOTIFICATION_HTTP_SEND_ENABLED"),
	}
	if cfg.Prefetch < 1 {
		return nil, fmt.Errorf("RABBITMQ_PREFETCH must be positive, got %d", cfg.Prefetch)
	}
	if cfg.ReconnectDelay <= 0 {
		return nil, errors.New("RABBITMQ_RECONNECT_DELAY must be positive")
	}
	return cfg, nil
}

func LoadGateway() (*GatewayConfig, error) {
	v := loadEnv()
	v.SetDefault("USER_SERVICE_URL", "http://localhost:3001")
	v.SetDefault("NOTIFICATION_SERVICE_URL", "http://localhost:3002")
	return &GatewayConfig{
		Common:                 common(v, "3000"),
		UserServiceURL:         strings.TrimSuffix(v.GetString("USER_SERVICE_URL"), "/"),
		NotificationServiceURL: strings.TrimSuffix(v.GetString("NOTIFICATION_SERVICE_URL"), "/"),
	}, nil
}

// ParseExpiry accepts Go durations ("90m"), whole days ("7d") and bare
// seconds ("3600").
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("duration must be positive: %q", s)
		}
		return time.Duration(n) * time.Second, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid day count: %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive: %q", s)
	}
	return d, nil
}
