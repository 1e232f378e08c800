package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported history store drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverNone     = "none"
)

// Supported geolocation providers.
const (
	GeoNone    = "none"
	GeoIPAPI   = "ipapi"
	GeoMaxMind = "maxmind"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port      string
	LogLevel  string
	LogDir    string
	StaticDir string

	TrustProxy   bool
	AutoDeviceID bool
	ResetSecret  string

	HistoryWriteTimeout time.Duration

	Database DBConfig
	Geo      GeoConfig
}

// DBConfig selects and parameterises the history store engine.
// URL, when set, is used verbatim as the driver DSN.
type DBConfig struct {
	Driver         string
	URL            string
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	SQLitePath     string
	ConnectTimeout time.Duration
}

// GeoConfig selects the IP geolocation provider.
type GeoConfig struct {
	Provider string
	APIURL   string
	DBPath   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Load reads the configuration. Engine specific variables are only consulted
// for the selected DB_DRIVER.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "3000"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogDir:              strings.TrimSpace(os.Getenv("LOG_DIR")),
		StaticDir:           getEnv("STATIC_DIR", "./public"),
		TrustProxy:          parseBool(os.Getenv("TRUST_PROXY")),
		AutoDeviceID:        parseBool(os.Getenv("AUTO_DEVICE_ID")),
		ResetSecret:         os.Getenv("RESET_JWT_SECRET"),
		HistoryWriteTimeout: 5 * time.Second,
		Geo: GeoConfig{
			Provider: strings.ToLower(getEnv("GEO_PROVIDER", GeoNone)),
			APIURL:   getEnv("GEO_API_URL", "http://ip-api.com/json/"),
			DBPath:   strings.TrimSpace(os.Getenv("GEOIP_DB_PATH")),
			Timeout:  2 * time.Second,
			CacheTTL: 10 * time.Minute,
		},
	}

	var err error
	if cfg.HistoryWriteTimeout, err = getDuration("HISTORY_WRITE_TIMEOUT", cfg.HistoryWriteTimeout); err != nil {
		return nil, err
	}
	if cfg.Geo.Timeout, err = getDuration("GEO_TIMEOUT", cfg.Geo.Timeout); err != nil {
		return nil, err
	}
	if cfg.Geo.CacheTTL, err = getDuration("GEO_CACHE_TTL", cfg.Geo.CacheTTL); err != nil {
		return nil, err
	}

	db := DBConfig{
		Driver:         strings.ToLower(getEnv("DB_DRIVER", DriverMySQL)),
		URL:            strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ConnectTimeout: 5 * time.Second,
	}
	if db.ConnectTimeout, err = getDuration("DB_CONNECT_TIMEOUT", db.ConnectTimeout); err != nil {
		return nil, err
	}

	switch db.Driver {
	case DriverMySQL:
		db.Host = getEnv("MYSQL_HOST", "localhost")
		db.Port = getEnv("MYSQL_PORT", "3306")
		db.User = getEnv("MYSQL_USER", "root")
		db.Password = os.Getenv("MYSQL_PASSWORD")
		db.Name = getEnv("MYSQL_DB", "tracking_app")
	case DriverPostgres:
		db.Host = getEnv("POSTGRES_HOST", "localhost")
		db.Port = getEnv("POSTGRES_PORT", "5432")
		db.User = getEnv("POSTGRES_USER", "postgres")
		db.Password = os.Getenv("POSTGRES_PASSWORD")
		db.Name = getEnv("POSTGRES_DB", "tracking_app")
		db.SSLMode = getEnv("POSTGRES_SSLMODE", "disable")
	case DriverSQLite:
		db.SQLitePath = getEnv("SQLITE_PATH", "./tracking.db")
	case DriverNone:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", db.Driver)
	}
	cfg.Database = db

	switch cfg.Geo.Provider {
	case GeoNone, GeoIPAPI:
	case GeoMaxMind:
		if cfg.Geo.DBPath == "" {
			return nil, fmt.Errorf("GEO_PROVIDER=maxmind requires GEOIP_DB_PATH")
		}
	default:
		return nil, fmt.Errorf("unsupported GEO_PROVIDER %q", cfg.Geo.Provider)
	}

	return cfg, nil
}

// HistoryEnabled reports whether a history store should be opened at all.
func (c *Config) HistoryEnabled() bool {
	return c.Database.Driver != DriverNone
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// getDuration accepts Go durations ("750ms") or plain seconds ("5").
func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", k, err)
	}
	return d, nil
}

func parseBool(val string) bool {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
