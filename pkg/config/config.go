package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Mongo         MongoConfig
	Redis         RedisConfig
	CORS          CORSConfig
	Log           LogConfig
	Cache         CacheConfig
	BusinessHours BusinessHoursConfig
	Conflicts     ConflictsConfig
	Notifications NotificationsConfig
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// MongoConfig is used when Database.Driver is "mongo".
type MongoConfig struct {
	URI                 string
	Database            string
	SchedulesCollection string
	ConflictsCollection string
	Timeout             time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs caching of availability analyses.
type CacheConfig struct {
	Enabled         bool
	AvailabilityTTL time.Duration
}

// BusinessHoursConfig sets the weekday window and the weekend policy.
type BusinessHoursConfig struct {
	Start         string
	End           string
	WeekendPolicy string
}

// ConflictsConfig drives the background conflict monitor.
type ConflictsConfig struct {
	MonitorEnabled  bool
	ScanInterval    time.Duration
	AdminID         string
	ScanConcurrency int
	StopTimeout     time.Duration
	ScanOnStart     bool
	LockEnabled     bool
	LockTTL         time.Duration
}

// NotificationsConfig selects the sinks receiving conflict notifications.
type NotificationsConfig struct {
	LogEnabled   bool
	ShoutrrrURLs []string
	Timeout      time.Duration
	Async        bool
	Workers      int
	MaxRetries   int
	RetryDelay   time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
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
		Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Mongo = MongoConfig{
		URI:                 v.GetString("MONGO_URI"),
		Database:            v.GetString("MONGO_DATABASE"),
		SchedulesCollection: v.GetString("MONGO_SCHEDULES_COLLECTION"),
		ConflictsCollection: v.GetString("MONGO_CONFLICTS_COLLECTION"),
		Timeout:             parseDuration(v.GetString("MONGO_TIMEOUT"), 10*time.Second),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:         v.GetBool("ENABLE_AVAILABILITY_CACHE"),
		AvailabilityTTL: parseDuration(v.GetString("AVAILABILITY_CACHE_TTL"), 5*time.Minute),
	}

	cfg.BusinessHours = BusinessHoursConfig{
		Start:         v.GetString("BUSINESS_HOURS_START"),
		End:           v.GetString("BUSINESS_HOURS_END"),
		WeekendPolicy: strings.ToLower(v.GetString("BUSINESS_HOURS_WEEKEND_POLICY")),
	}

	concurrency := v.GetInt("CONFLICT_SCAN_CONCURRENCY")
	if concurrency <= 0 {
		concurrency = 4
	}
	cfg.Conflicts = ConflictsConfig{
		MonitorEnabled:  v.GetBool("ENABLE_CONFLICT_MONITOR"),
		ScanInterval:    parseSeconds(v.GetString("CONFLICT_SCAN_INTERVAL"), time.Hour),
		AdminID:         v.GetString("CONFLICT_ADMIN_ID"),
		ScanConcurrency: concurrency,
		StopTimeout:     parseDuration(v.GetString("CONFLICT_STOP_TIMEOUT"), 5*time.Second),
		ScanOnStart:     v.GetBool("CONFLICT_SCAN_ON_START"),
		LockEnabled:     v.GetBool("CONFLICT_SCAN_LOCK"),
		LockTTL:         parseDuration(v.GetString("CONFLICT_SCAN_LOCK_TTL"), 10*time.Minute),
	}

	cfg.Notifications = NotificationsConfig{
		LogEnabled:   v.GetBool("NOTIFY_LOG_ENABLED"),
		ShoutrrrURLs: splitAndTrim(v.GetString("NOTIFY_SHOUTRRR_URLS")),
		Timeout:      parseDuration(v.GetString("NOTIFY_TIMEOUT"), 10*time.Second),
		Async:        v.GetBool("NOTIFY_ASYNC"),
		Workers:      v.GetInt("NOTIFY_WORKERS"),
		MaxRetries:   v.GetInt("NOTIFY_MAX_RETRIES"),
		RetryDelay:   parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), 5*time.Second),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "room_scheduler")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "EduResourceDB")
	v.SetDefault("MONGO_SCHEDULES_COLLECTION", "timetables")
	v.SetDefault("MONGO_CONFLICTS_COLLECTION", "detected_conflicts")
	v.SetDefault("MONGO_TIMEOUT", "10s")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_AVAILABILITY_CACHE", false)
	v.SetDefault("AVAILABILITY_CACHE_TTL", "5m")

	v.SetDefault("BUSINESS_HOURS_START", "08:00")
	v.SetDefault("BUSINESS_HOURS_END", "20:00")
	v.SetDefault("BUSINESS_HOURS_WEEKEND_POLICY", "reject")

	v.SetDefault("ENABLE_CONFLICT_MONITOR", true)
	v.SetDefault("CONFLICT_SCAN_INTERVAL", "3600")
	v.SetDefault("CONFLICT_ADMIN_ID", "system_admin")
	v.SetDefault("CONFLICT_SCAN_CONCURRENCY", 4)
	v.SetDefault("CONFLICT_STOP_TIMEOUT", "5s")
	v.SetDefault("CONFLICT_SCAN_ON_START", true)
	v.SetDefault("CONFLICT_SCAN_LOCK", false)
	v.SetDefault("CONFLICT_SCAN_LOCK_TTL", "10m")

	v.SetDefault("NOTIFY_LOG_ENABLED", true)
	v.SetDefault("NOTIFY_SHOUTRRR_URLS", "")
	v.SetDefault("NOTIFY_TIMEOUT", "10s")
	v.SetDefault("NOTIFY_ASYNC", true)
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_MAX_RETRIES", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", "5s")
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

// parseSeconds accepts a bare integer number of seconds or a Go duration.
func parseSeconds(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	var d time.Duration
	if secs, err := strconv.Atoi(raw); err == nil {
		d = time.Duration(secs) * time.Second
	} else {
		d = parseDuration(raw, fallback)
	}
	if d <= 0 {
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
