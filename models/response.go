package models

// AckResponse acknowledges a write request.
type AckResponse struct {
	OK      bool          `json:"ok"`
	Message string        `json:"message,omitempty"`
	Device  *DeviceReport `json:"device,omitempty"`
	Cleared *int          `json:"cleared,omitempty"`
}

// APIError is the body of every non-2xx JSON response.
type APIError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthResponse 헬스체크 응답
type HealthResponse struct {
	OK               bool `json:"ok"`
	LiveDevices      int  `json:"liveDevices"`
	HistoryAvailable bool `json:"historyAvailable"`
	HistoryRows      *int `json:"historyRows,omitempty"`
}

// SuccessResponse builds an acknowledgement.
func SuccessResponse(message string, device *DeviceReport) AckResponse {
	return AckResponse{
		OK:      true,
		Message: message,
		Device:  device,
	}
}

// ErrorResponse builds an error body; err, when given, goes into details.
func ErrorResponse(message string, err error) APIError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return APIError{
		Error:   message,
		Details: details,
	}
}
