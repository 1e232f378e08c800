package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ReportsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_reports_total",
			Help: "Accepted device reports.",
		},
	)

	HistoryWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_history_writes_total",
			Help: "History appends by result (ok, failed).",
		},
		[]string{"result"},
	)

	GeoLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_geolocation_lookups_total",
			Help: "Geolocation lookups by result (success, fail).",
		},
		[]string{"result"},
	)

	LiveDevices = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_live_devices",
			Help: "Devices currently held in the live registry.",
		},
	)

	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		},
		[]string{"route", "method", "status"},
	)
)

func init() {
	prometheus.MustRegister(ReportsTotal, HistoryWrites, GeoLookups, LiveDevices, RequestCounter)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
