package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"devicetracker/logger"
	"devicetracker/models"
	"devicetracker/services"
	"devicetracker/utils"
)

const maxReportBody = 1 << 20

// DeviceHandler는 디바이스 보고 및 조회 HTTP 요청을 처리한다.
type DeviceHandler struct {
	reports    *services.ReportService
	live       *services.LiveRegistry
	history    services.HistoryStore
	trustProxy bool
}

// NewDeviceHandler는 디바이스 핸들러를 생성한다.
func NewDeviceHandler(reports *services.ReportService, live *services.LiveRegistry, history services.HistoryStore, trustProxy bool) *DeviceHandler {
	return &DeviceHandler{
		reports:    reports,
		live:       live,
		history:    history,
		trustProxy: trustProxy,
	}
}

// Report 디바이스 위치 보고
// @Summary 디바이스 위치 보고
// @Description 라이브 레지스트리에 보고를 반영하고 DB 이력에 기록한다 (DB 실패는 응답에 영향 없음)
// @Tags devices
// @Accept json
// @Produce json
// @Param request body models.ReportRequest true "report"
// @Success 200 {object} models.AckResponse
// @Failure 400 {object} models.APIError
// @Router /report [post]
func (h *DeviceHandler) Report(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req models.ReportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReportBody)).Decode(&req); err != nil {
		logger.WithFields(map[string]interface{}{
			"request_id": utils.RequestIDFromContext(r.Context()),
			"error":      err.Error(),
		}).Warn("Invalid report body")

		writeJSON(w, http.StatusBadRequest, models.ErrorResponse("Invalid request body", err))
		return
	}

	report, err := h.reports.Ingest(r.Context(), req, utils.ClientIP(r, h.trustProxy))
	if err != nil {
		if errors.Is(err, services.ErrBadRequest) {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse("deviceId is required", nil))
			return
		}
		// Ingest only returns ErrBadRequest; anything else is a programming error.
		logger.Error("Unexpected ingest error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse("Failed to record report", err))
		return
	}

	writeJSON(w, http.StatusOK, models.SuccessResponse("", &report))
}

// ListDevices 라이브 디바이스 목록
// @Summary 라이브 디바이스 목록
// @Tags devices
// @Produce json
// @Success 200 {array} models.DeviceReport
// @Router /devices [get]
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, h.live.ListAll())
}

// GetDevice 라이브 디바이스 상세
// @Summary 라이브 디바이스 상세
// @Tags devices
// @Produce json
// @Param id path string true "device id"
// @Success 200 {object} models.DeviceReport
// @Failure 404 {object} models.APIError
// @Router /devices/{id} [get]
func (h *DeviceHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/devices/")
	if id == "" {
		h.ListDevices(w, r)
		return
	}

	device, err := h.live.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrDeviceNotFound) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse("Device not found", nil))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse("Failed to read device", err))
		return
	}
	writeJSON(w, http.StatusOK, device)
}

// History 전체 보고 이력 (최신순)
// @Summary 전체 보고 이력
// @Description 저장된 모든 보고 (최신순)
// @Tags history
// @Produce json
// @Success 200 {array} models.HistoryRow
// @Failure 500 {object} models.APIError
// @Failure 503 {object} models.APIError
// @Router /history [get]
func (h *DeviceHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	rows, err := h.history.QueryAll(r.Context())
	if err != nil {
		fields := map[string]interface{}{
			"request_id": utils.RequestIDFromContext(r.Context()),
			"error":      err.Error(),
		}
		if errors.Is(err, services.ErrStoreUnavailable) {
			logger.WithFields(fields).Warn("History requested while database unavailable")
			writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse("Database not connected.", nil))
			return
		}
		logger.WithFields(fields).Error("History query failed")
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse("Database query failed", err))
		return
	}

	writeJSON(w, http.StatusOK, rows)
}

// Reset 라이브 디바이스 초기화 (DB 이력 유지)
// @Summary 라이브 디바이스 초기화
// @Description 라이브 레지스트리만 비우고 DB 이력은 유지한다
// @Tags devices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.AckResponse
// @Failure 401 {object} models.APIError
// @Router /reset [post]
func (h *DeviceHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	cleared := h.reports.Reset()
	logger.WithFields(map[string]interface{}{
		"request_id": utils.RequestIDFromContext(r.Context()),
		"cleared":    cleared,
	}).Info("Live devices cleared")

	resp := models.SuccessResponse("All live devices cleared (DB history preserved).", nil)
	resp.Cleared = &cleared
	writeJSON(w, http.StatusOK, resp)
}

// Health 헬스체크
// @Summary 헬스체크
// @Tags system
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /health [get]
func (h *DeviceHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	resp := models.HealthResponse{
		OK:               true,
		LiveDevices:      h.live.Len(),
		HistoryAvailable: h.history.Available(),
	}
	if resp.HistoryAvailable {
		if n, err := h.history.Count(r.Context()); err == nil {
			resp.HistoryRows = &n
		} else {
			resp.HistoryAvailable = false
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeJSON(w, http.StatusMethodNotAllowed, models.ErrorResponse("Method not allowed", nil))
}
