package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"devicetracker/logger"
	"devicetracker/metrics"
	"devicetracker/models"
	"devicetracker/utils"
)

// ReportServiceOptions configures ingestion.
type ReportServiceOptions struct {
	// Geolocator is optional; nil disables lookups.
	Geolocator   Geolocator
	GeoTimeout   time.Duration
	WriteTimeout time.Duration
	// AutoDeviceID generates an id for reports that arrive without one
	// instead of rejecting them.
	AutoDeviceID bool
	Clock        *utils.MonotonicClock
}

// ReportService ingests device reports into the live registry and the history store.
type ReportService struct {
	live    *LiveRegistry
	history HistoryStore
	opts    ReportServiceOptions
}

func NewReportService(live *LiveRegistry, history HistoryStore, opts ReportServiceOptions) *ReportService {
	if opts.Clock == nil {
		opts.Clock = utils.NewMonotonicClock(nil)
	}
	if opts.GeoTimeout <= 0 {
		opts.GeoTimeout = 2 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if history == nil {
		history = UnavailableHistoryStore(nil)
	}
	return &ReportService{live: live, history: history, opts: opts}
}

// Ingest records a report. peerIP is the normalized transport address, used
// when the payload carries no publicIP. Only ErrBadRequest is ever returned;
// geolocation and history failures are logged and swallowed. The history row
// is written before Ingest returns.
func (s *ReportService) Ingest(ctx context.Context, req models.ReportRequest, peerIP string) (models.DeviceReport, error) {
	deviceID := strings.TrimSpace(req.DeviceID)
	if deviceID == "" {
		if !s.opts.AutoDeviceID {
			return models.DeviceReport{}, fmt.Errorf("%w: deviceId is required", ErrBadRequest)
		}
		deviceID = utils.GenerateID("dev")
	}

	report := models.DeviceReport{
		DeviceID:   deviceID,
		Label:      req.Label,
		ClientLat:  req.ClientLat,
		ClientLon:  req.ClientLon,
		PublicIP:   utils.NormalizeIP(req.PublicIP),
		ReportedAt: utils.FormatTimestamp(s.opts.Clock.Now()),
	}
	if report.PublicIP == "" {
		report.PublicIP = utils.NormalizeIP(peerIP)
	}

	if s.opts.Geolocator != nil {
		report.Geo = s.locate(ctx, report.PublicIP)
	}

	s.live.Upsert(report)
	metrics.ReportsTotal.Inc()

	s.appendHistory(ctx, report)

	logger.WithFields(map[string]interface{}{
		"request_id": utils.RequestIDFromContext(ctx),
		"device_id":  report.DeviceID,
		"public_ip":  report.PublicIP,
	}).Debug("Device report accepted")

	return report, nil
}

// locate never fails; a lookup error becomes a status=fail marker.
func (s *ReportService) locate(ctx context.Context, ip string) *models.Geolocation {
	lookupCtx, cancel := context.WithTimeout(ctx, s.opts.GeoTimeout)
	defer cancel()

	geo, err := s.opts.Geolocator.Lookup(lookupCtx, ip)
	if err != nil {
		metrics.GeoLookups.WithLabelValues(models.GeoStatusFail).Inc()
		logger.WithFields(map[string]interface{}{
			"request_id": utils.RequestIDFromContext(ctx),
			"ip":         ip,
			"error":      err.Error(),
		}).Warn("Geolocation lookup failed")
		return models.FailedGeolocation(ip, fmt.Errorf("%w: %v", ErrLookupFailed, err))
	}

	metrics.GeoLookups.WithLabelValues(models.GeoStatusSuccess).Inc()
	return &geo
}

// appendHistory writes to history before the report is acknowledged, so a
// later QueryAll sees it. Request cancellation does not abort the write;
// WriteTimeout bounds it. Failures are logged only.
func (s *ReportService) appendHistory(ctx context.Context, report models.DeviceReport) {
	if !s.history.Available() {
		metrics.HistoryWrites.WithLabelValues("skipped").Inc()
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.WriteTimeout)
	defer cancel()

	if err := s.history.Append(writeCtx, report); err != nil {
		metrics.HistoryWrites.WithLabelValues("failed").Inc()
		logger.WithFields(map[string]interface{}{
			"request_id": utils.RequestIDFromContext(ctx),
			"device_id":  report.DeviceID,
			"error":      err.Error(),
		}).Error("DB insert error")
		return
	}
	metrics.HistoryWrites.WithLabelValues("ok").Inc()
}

// Reset clears the live registry. History is never touched.
func (s *ReportService) Reset() int {
	return s.live.Clear()
}
