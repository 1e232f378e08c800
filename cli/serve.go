package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devicetracker/handlers"
	"devicetracker/logger"
	"devicetracker/services"
	"devicetracker/utils"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&flagPort, "port", "p", "", "listen port; overrides PORT")
	rootCmd.Flags().StringVarP(&flagPort, "port", "p", "", "listen port; overrides PORT")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogger(cfg, true); err != nil {
		return err
	}

	logger.Info("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	logger.Info("Device Tracker Server Starting")
	logger.Info("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	// 데이터베이스 초기화 (실패 시 라이브 레지스트리만으로 동작)
	initCtx, cancelInit := context.WithTimeout(context.Background(), connectTimeout(cfg))
	history := openHistory(initCtx, cfg)
	cancelInit()
	defer history.Close()

	geo, closeGeo, err := buildGeolocator(cfg)
	if err != nil {
		// enrichment is optional; keep serving without it
		logger.Error("Geolocation disabled: %v", err)
		geo = nil
	}
	defer closeGeo()

	live := services.NewLiveRegistry()
	reports := services.NewReportService(live, history, services.ReportServiceOptions{
		Geolocator:   geo,
		GeoTimeout:   cfg.Geo.Timeout,
		WriteTimeout: cfg.HistoryWriteTimeout,
		AutoDeviceID: cfg.AutoDeviceID,
		Clock:        utils.NewMonotonicClock(nil),
	})

	handler := handlers.NewDeviceHandler(reports, live, history, cfg.TrustProxy)
	mux := handlers.NewRouter(handler, handlers.RouterOptions{
		ResetSecret: cfg.ResetSecret,
		StaticDir:   cfg.StaticDir,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("Server running on port %s", cfg.Port)
	logger.Info("History store: %s (available=%t)", cfg.Database.Driver, history.Available())
	logger.Info("Geolocation: %s", cfg.Geo.Provider)
	logger.Info("Swagger UI: http://localhost:%s/swagger/index.html", cfg.Port)
	if cfg.ResetSecret != "" {
		logger.Info("POST /reset requires a bearer token (see `tracker token`)")
	}
	logger.Info("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	// Graceful shutdown 설정
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			logger.Error("Server failed: %v", err)
			return err
		}
		return nil
	case <-sigChan:
		logger.Warn("Received shutdown signal")
	}

	// 진행 중인 요청(이력 쓰기 포함) 완료 대기
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown: %v", err)
	}

	logger.Info("Server stopped")
	return nil
}
