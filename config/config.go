package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// MongoDB.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	AdminJWTSecret string `mapstructure:"ADMIN_JWT_SECRET"`

	// Calendar.
	CalendarTimezone        string        `mapstructure:"CALENDAR_TIMEZONE"`
	CalendarFutureMonths    int           `mapstructure:"CALENDAR_FUTURE_MONTHS"`
	CalendarRetentionMonths int           `mapstructure:"CALENDAR_RETENTION_MONTHS"`
	CalendarHolidays        []string      `mapstructure:"CALENDAR_HOLIDAYS"`
	SlotCacheTTL            time.Duration `mapstructure:"SLOT_CACHE_TTL"`
	TemplateCacheSize       int           `mapstructure:"TEMPLATE_CACHE_SIZE"`
	BookingLockTTL          time.Duration `mapstructure:"BOOKING_LOCK_TTL"`

	// Reconciliation schedule.
	ReconcileFullInterval         time.Duration `mapstructure:"RECONCILE_FULL_INTERVAL"`
	ReconcileBookingInterval      time.Duration `mapstructure:"RECONCILE_BOOKING_INTERVAL"`
	ReconcileAvailabilityInterval time.Duration `mapstructure:"RECONCILE_AVAILABILITY_INTERVAL"`
	ReconcileJitter               time.Duration `mapstructure:"RECONCILE_JITTER"`
	AsyncWorkerConcurrency        int           `mapstructure:"ASYNC_WORKER_CONCURRENCY"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "caredesk")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 3)
	viper.SetDefault("ADMIN_JWT_SECRET", "")
	viper.SetDefault("CALENDAR_TIMEZONE", "Local")
	viper.SetDefault("CALENDAR_FUTURE_MONTHS", 2)
	viper.SetDefault("CALENDAR_RETENTION_MONTHS", 3)
	viper.SetDefault("CALENDAR_HOLIDAYS", []string{})
	viper.SetDefault("SLOT_CACHE_TTL", 5*time.Minute)
	viper.SetDefault("TEMPLATE_CACHE_SIZE", 512)
	viper.SetDefault("BOOKING_LOCK_TTL", 10*time.Second)
	viper.SetDefault("RECONCILE_FULL_INTERVAL", 24*time.Hour)
	viper.SetDefault("RECONCILE_BOOKING_INTERVAL", 15*time.Minute)
	viper.SetDefault("RECONCILE_AVAILABILITY_INTERVAL", time.Hour)
	viper.SetDefault("RECONCILE_JITTER", 30*time.Second)
	viper.SetDefault("ASYNC_WORKER_CONCURRENCY", 4)
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// Location resolves CALENDAR_TIMEZONE, falling back to the process location.
func Location() *time.Location {
	name := AppConfig.CalendarTimezone
	if name == "" || name == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Unknown CALENDAR_TIMEZONE %q, using local time: %v", name, err)
		return time.Local
	}
	return loc
}
