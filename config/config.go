package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"

	LockDriverLocal = "local"
	LockDriverRedis = "redis"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Lock      LockConfig
	Cache     CacheConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Reconcile ReconcileConfig
}

type AppConfig struct {
	Port               string
	Env                string
	Timezone           string
	LogLevel           string
	StoreDriver        string
	AvailabilityWindow int
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the key/value connection string used by GORM
func (c DBConfig) DSN(timezone string) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode, timezone,
	)
}

// URL returns the connection URL used by golang-migrate
func (c DBConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

type MongoConfig struct {
	URI          string
	Database     string
	Transactions bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
	Timeout  time.Duration
}

type LockConfig struct {
	Driver string
	TTL    time.Duration
}

type CacheConfig struct {
	AvailabilityTTL time.Duration
	DirectoryTTL    time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type ReconcileConfig struct {
	Enabled bool
	Cron    string
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_TIMEZONE", "Asia/Jakarta")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("AVAILABILITY_WINDOW_DAYS", 7)
	viper.SetDefault("STORE_DRIVER", StoreDriverPostgres)

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_NAME", "medminion")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 100)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "30m")

	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "medminion")
	viper.SetDefault("MONGO_TRANSACTIONS", true)

	viper.SetDefault("REDIS_ENABLED", true)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_POOL_SIZE", 20)
	viper.SetDefault("REDIS_TIMEOUT", "3s")

	viper.SetDefault("LOCK_DRIVER", LockDriverLocal)
	viper.SetDefault("LOCK_TTL", "10s")
	viper.SetDefault("CACHE_AVAILABILITY_TTL", "5m")
	viper.SetDefault("CACHE_DIRECTORY_TTL", "10m")

	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	viper.SetDefault("RATE_LIMIT_RPS", 20)
	viper.SetDefault("RATE_LIMIT_BURST", 40)

	viper.SetDefault("RECONCILE_ENABLED", true)
	viper.SetDefault("RECONCILE_CRON", "5 0 * * *")
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()
	setDefaults()

	// .env is optional, the environment alone is enough
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	config := &Config{
		App: AppConfig{
			Port:               viper.GetString("APP_PORT"),
			Env:                viper.GetString("APP_ENV"),
			Timezone:           viper.GetString("APP_TIMEZONE"),
			LogLevel:           viper.GetString("LOG_LEVEL"),
			StoreDriver:        viper.GetString("STORE_DRIVER"),
			AvailabilityWindow: viper.GetInt("AVAILABILITY_WINDOW_DAYS"),
		},
		DB: DBConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),

			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: viper.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Mongo: MongoConfig{
			URI:          viper.GetString("MONGO_URI"),
			Database:     viper.GetString("MONGO_DATABASE"),
			Transactions: viper.GetBool("MONGO_TRANSACTIONS"),
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("REDIS_ENABLED"),
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			PoolSize: viper.GetInt("REDIS_POOL_SIZE"),
			Timeout:  viper.GetDuration("REDIS_TIMEOUT"),
		},
		Lock: LockConfig{
			Driver: viper.GetString("LOCK_DRIVER"),
			TTL:    viper.GetDuration("LOCK_TTL"),
		},
		Cache: CacheConfig{
			AvailabilityTTL: viper.GetDuration("CACHE_AVAILABILITY_TTL"),
			DirectoryTTL:    viper.GetDuration("CACHE_DIRECTORY_TTL"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		RateLimit: RateLimitConfig{
			RPS:   viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst: viper.GetInt("RATE_LIMIT_BURST"),
		},
		Reconcile: ReconcileConfig{
			Enabled: viper.GetBool("RECONCILE_ENABLED"),
			Cron:    viper.GetString("RECONCILE_CRON"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects driver names and numbers the server cannot run with
func (c *Config) Validate() error {
	switch c.App.StoreDriver {
	case StoreDriverPostgres, StoreDriverMongo:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.App.StoreDriver)
	}
	switch c.Lock.Driver {
	case LockDriverLocal:
	case LockDriverRedis:
		if !c.Redis.Enabled {
			return errors.New("LOCK_DRIVER=redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("unsupported LOCK_DRIVER %q", c.Lock.Driver)
	}
	if c.App.AvailabilityWindow < 1 {
		return fmt.Errorf("AVAILABILITY_WINDOW_DAYS must be positive, got %d", c.App.AvailabilityWindow)
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.App.Timezone, err)
	}
	return nil
}

// Location returns the configured time zone; "today" is evaluated there
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// splitList reads a comma separated env value, dropping blanks
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isMissingFile(err error) bool {
	var pathErr *fs.PathError
	return errors.As(err, &pathErr)
}
