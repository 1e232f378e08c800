package cli

import (
	"context"
	"os"
	"time"

	"devicetracker/config"
	"devicetracker/database"
	"devicetracker/geoip"
	"devicetracker/logger"
	"devicetracker/services"

	"github.com/spf13/cobra"
)

var (
	flagPort     string
	flagDriver   string
	flagLogLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Device location/IP report server",
	Long: `Collects location and public IP reports from devices.

Reports are kept in memory for the live dashboard and appended to a SQL
history store (MySQL, PostgreSQL or SQLite). Without a subcommand the HTTP
server is started.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDriver, "db-driver", "", "history store driver (mysql, postgres, sqlite, none); overrides DB_DRIVER")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
}

// loadConfig reads the environment and applies command line overrides.
func loadConfig() (*config.Config, error) {
	if flagDriver != "" {
		os.Setenv("DB_DRIVER", flagDriver)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagPort != "" {
		cfg.Port = flagPort
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	return cfg, nil
}

func setupLogger(cfg *config.Config, color bool) error {
	return logger.Initialize(logger.Config{
		Level:    logger.ParseLevel(cfg.LogLevel),
		LogDir:   cfg.LogDir,
		MaxSize:  10 * 1024 * 1024, // 10MB
		MaxAge:   7,                // 7일
		UseColor: color,
	})
}

// openHistory connects the configured engine. Any failure yields the
// unavailable store so the caller keeps running in degraded mode.
func openHistory(ctx context.Context, cfg *config.Config) services.HistoryStore {
	if !cfg.HistoryEnabled() {
		logger.Warn("DB_DRIVER=none: history disabled, live registry only")
		return services.UnavailableHistoryStore(database.ErrDisabled)
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("%s connection failed: %v", cfg.Database.Driver, err)
		return services.UnavailableHistoryStore(err)
	}
	return services.NewSQLHistoryStore(services.NewSQLExecutor(db, cfg.Database.Driver))
}

// buildGeolocator returns nil when lookups are disabled. The close func is never nil.
func buildGeolocator(cfg *config.Config) (services.Geolocator, func() error, error) {
	noop := func() error { return nil }

	var (
		geo     services.Geolocator
		closeFn = noop
	)
	switch cfg.Geo.Provider {
	case config.GeoIPAPI:
		geo = geoip.NewIPAPIClient(cfg.Geo.APIURL, cfg.Geo.Timeout)
	case config.GeoMaxMind:
		mm, err := geoip.OpenMaxMind(cfg.Geo.DBPath)
		if err != nil {
			return nil, noop, err
		}
		geo, closeFn = mm, mm.Close
	default:
		return nil, noop, nil
	}

	if cfg.Geo.CacheTTL > 0 {
		geo = services.NewCachingGeolocator(geo, cfg.Geo.CacheTTL)
	}
	return geo, closeFn, nil
}

func connectTimeout(cfg *config.Config) time.Duration {
	if cfg.Database.ConnectTimeout > 0 {
		return cfg.Database.ConnectTimeout + time.Second
	}
	return 10 * time.Second
}
