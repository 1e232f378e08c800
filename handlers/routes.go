package handlers

import (
	"net/http"
	"os"

	_ "devicetracker/docs" // Swagger 문서
	"devicetracker/metrics"
	"devicetracker/middleware"

	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterOptions toggles the optional parts of the HTTP surface.
type RouterOptions struct {
	// ResetSecret, when non-empty, requires a bearer token on POST /reset.
	ResetSecret string
	// StaticDir is served at "/" when it exists.
	StaticDir string
}

// NewRouter wires every endpoint with the standard middleware chain.
func NewRouter(h *DeviceHandler, opts RouterOptions) *http.ServeMux {
	mux := http.NewServeMux()

	api := func(route string, handler http.HandlerFunc, extra ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
		chain := []func(http.HandlerFunc) http.HandlerFunc{
			middleware.LoggingMiddleware,
			middleware.MetricsMiddleware(route),
			middleware.CORSMiddleware,
		}
		chain = append(chain, extra...)
		chain = append(chain, middleware.SetJSONHeader)
		return middleware.ChainMiddleware(handler, chain...)
	}

	mux.HandleFunc("/report", api("/report", h.Report))
	mux.HandleFunc("/devices", api("/devices", h.ListDevices))
	mux.HandleFunc("/devices/", api("/devices/:id", h.GetDevice))
	mux.HandleFunc("/history", api("/history", h.History))
	mux.HandleFunc("/reset", api("/reset", h.Reset, middleware.RequireResetToken(opts.ResetSecret)))
	mux.HandleFunc("/health", api("/health", h.Health))

	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// 정적 파일 서빙 (대시보드/트래커 페이지)
	if opts.StaticDir != "" {
		if info, err := os.Stat(opts.StaticDir); err == nil && info.IsDir() {
			mux.Handle("/", http.FileServer(http.Dir(opts.StaticDir)))
			return mux
		}
	}
	mux.HandleFunc("/", homeHandler)
	return mux
}

// homeHandler 루트 핸들러
func homeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"service": "device tracker",
	})
}
