package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Scheduling    SchedulingConfig
	Booking       BookingConfig
	Cache         CacheConfig
	RateLimit     RateLimitConfig
	Notifications NotificationsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulingConfig tunes slot generation and month occupancy aggregation.
type SchedulingConfig struct {
	Timezone           string
	LeadTime           time.Duration
	OccupancyBatchSize int
	SlotFetchTimeout   time.Duration
	SingleWindowPerDay bool
}

// Location resolves the configured timezone, falling back to UTC.
func (s SchedulingConfig) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BookingConfig controls the booking session drafts.
type BookingConfig struct {
	DraftStore string
	DraftTTL   time.Duration
}

// CacheConfig governs read-through caching of tutorial lookups.
type CacheConfig struct {
	Enabled     bool
	TutorialTTL time.Duration
}

// RateLimitConfig bounds the occupancy endpoint per client.
type RateLimitConfig struct {
	Enabled bool
	Limit   int
	Window  time.Duration
}

// NotificationsConfig wires booking notifications to Kafka and SMTP.
type NotificationsConfig struct {
	Workers      int
	MaxRetries   int
	RetryDelay   time.Duration
	KafkaBrokers []string
	KafkaTopic   string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	batch := v.GetInt("SCHEDULING_OCCUPANCY_BATCH_SIZE")
	if batch <= 0 {
		batch = 5
	}
	cfg.Scheduling = SchedulingConfig{
		Timezone:           v.GetString("SCHEDULING_TIMEZONE"),
		LeadTime:           parseDuration(v.GetString("SCHEDULING_LEAD_TIME"), 0),
		OccupancyBatchSize: batch,
		SlotFetchTimeout:   parseDuration(v.GetString("SCHEDULING_SLOT_FETCH_TIMEOUT"), 10*time.Second),
		SingleWindowPerDay: v.GetBool("SCHEDULING_SINGLE_WINDOW_PER_DAY"),
	}

	cfg.Booking = BookingConfig{
		DraftStore: strings.ToLower(v.GetString("BOOKING_DRAFT_STORE")),
		DraftTTL:   parseDuration(v.GetString("BOOKING_DRAFT_TTL"), 30*time.Minute),
	}

	cfg.Cache = CacheConfig{
		Enabled:     v.GetBool("ENABLE_TUTORIAL_CACHE"),
		TutorialTTL: parseDuration(v.GetString("TUTORIAL_CACHE_TTL"), 5*time.Minute),
	}

	cfg.RateLimit = RateLimitConfig{
		Enabled: v.GetBool("ENABLE_RATE_LIMIT"),
		Limit:   v.GetInt("RATE_LIMIT_OCCUPANCY_LIMIT"),
		Window:  parseDuration(v.GetString("RATE_LIMIT_OCCUPANCY_WINDOW"), time.Minute),
	}

	cfg.Notifications = NotificationsConfig{
		Workers:      v.GetInt("NOTIFICATIONS_WORKERS"),
		MaxRetries:   v.GetInt("NOTIFICATIONS_MAX_RETRIES"),
		RetryDelay:   parseDuration(v.GetString("NOTIFICATIONS_RETRY_DELAY"), 2*time.Second),
		KafkaBrokers: splitAndTrim(v.GetString("NOTIFICATIONS_KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("NOTIFICATIONS_KAFKA_TOPIC"),
		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUser:     v.GetString("SMTP_USER"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		MailFrom:     v.GetString("MAIL_FROM"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "mentor_booking")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "mentor-booking-api")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULING_TIMEZONE", "Asia/Seoul")
	v.SetDefault("SCHEDULING_LEAD_TIME", "0s")
	v.SetDefault("SCHEDULING_OCCUPANCY_BATCH_SIZE", 5)
	v.SetDefault("SCHEDULING_SLOT_FETCH_TIMEOUT", "10s")
	v.SetDefault("SCHEDULING_SINGLE_WINDOW_PER_DAY", true)

	v.SetDefault("BOOKING_DRAFT_STORE", "memory")
	v.SetDefault("BOOKING_DRAFT_TTL", "30m")

	v.SetDefault("ENABLE_TUTORIAL_CACHE", false)
	v.SetDefault("TUTORIAL_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_RATE_LIMIT", false)
	v.SetDefault("RATE_LIMIT_OCCUPANCY_LIMIT", 60)
	v.SetDefault("RATE_LIMIT_OCCUPANCY_WINDOW", "1m")

	v.SetDefault("NOTIFICATIONS_WORKERS", 2)
	v.SetDefault("NOTIFICATIONS_MAX_RETRIES", 3)
	v.SetDefault("NOTIFICATIONS_RETRY_DELAY", "2s")
	v.SetDefault("NOTIFICATIONS_KAFKA_BROKERS", "")
	v.SetDefault("NOTIFICATIONS_KAFKA_TOPIC", "mentor-booking.lessons")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "no-reply@mentor-booking.local")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
