package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Database drivers understood by the service.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTPPort        int
	LogLevel        string
	DBDriver        string
	SQLiteDSN       string
	PostgresDSN     string
	JWTSecret       string
	MaxRoomCapacity int
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisChannel    string
	CORSOrigins     []string
	DisplayLocation *time.Location
	ShutdownTimeout time.Duration
}

// RedisEnabled reports whether meeting events should be published to Redis.
func (c Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// Load parses configuration values from the current process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom parses configuration values using getenv.
//
// Optional fields fall back to defaults. Missing required values are reported
// before invalid ones, each as a single localized message.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		LogLevel:        "info",
		DBDriver:        DriverSQLite,
		SQLiteDSN:       "file:booking.db",
		RedisChannel:    "room-booking.events",
		DisplayLocation: time.UTC,
		ShutdownTimeout: 10 * time.Second,
	}

	value := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if portValue := value("BOOKING_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "BOOKING_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if level := value("BOOKING_LOG_LEVEL"); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	if driver := value("BOOKING_DB_DRIVER"); driver != "" {
		switch strings.ToLower(driver) {
		case DriverSQLite, DriverPostgres:
			cfg.DBDriver = strings.ToLower(driver)
		default:
			invalid = append(invalid, "BOOKING_DB_DRIVER")
		}
	}

	if dsn := value("BOOKING_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	cfg.PostgresDSN = value("BOOKING_POSTGRES_DSN")
	if cfg.DBDriver == DriverPostgres && cfg.PostgresDSN == "" {
		missing = append(missing, "BOOKING_POSTGRES_DSN")
	}

	if secret := value("BOOKING_JWT_SECRET"); secret == "" {
		missing = append(missing, "BOOKING_JWT_SECRET")
	} else {
		cfg.JWTSecret = secret
	}

	if capacityValue := value("BOOKING_MAX_ROOM_CAPACITY"); capacityValue != "" {
		capacity, err := strconv.Atoi(capacityValue)
		if err != nil || capacity < 0 {
			invalid = append(invalid, "BOOKING_MAX_ROOM_CAPACITY")
		} else {
			cfg.MaxRoomCapacity = capacity
		}
	}

	cfg.RedisAddr = value("BOOKING_REDIS_ADDR")
	cfg.RedisPassword = getenv("BOOKING_REDIS_PASSWORD")
	if dbValue := value("BOOKING_REDIS_DB"); dbValue != "" {
		db, err := strconv.Atoi(dbValue)
		if err != nil || db < 0 {
			invalid = append(invalid, "BOOKING_REDIS_DB")
		} else {
			cfg.RedisDB = db
		}
	}
	if channel := value("BOOKING_REDIS_CHANNEL"); channel != "" {
		cfg.RedisChannel = channel
	}

	if origins := value("BOOKING_CORS_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, trimmed)
			}
		}
	}

	if tz := value("BOOKING_DISPLAY_TZ"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, "BOOKING_DISPLAY_TZ")
		} else {
			cfg.DisplayLocation = loc
		}
	}

	if timeoutValue := value("BOOKING_SHUTDOWN_TIMEOUT"); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "BOOKING_SHUTDOWN_TIMEOUT")
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
