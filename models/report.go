package models

// DeviceReport is the latest known state of a device as held by the live registry.
type DeviceReport struct {
	DeviceID   string       `json:"deviceId"`
	Label      *string      `json:"label,omitempty"`
	ClientLat  *float64     `json:"clientLat"`
	ClientLon  *float64     `json:"clientLon"`
	PublicIP   string       `json:"publicIP"`
	ReportedAt string       `json:"reportedAt"` // ISO-8601 UTC, fixed width
	Geo        *Geolocation `json:"geo,omitempty"`
}

// ReportRequest is the payload accepted by POST /report.
type ReportRequest struct {
	DeviceID  string   `json:"deviceId"`
	Label     *string  `json:"label,omitempty"`
	ClientLat *float64 `json:"clientLat,omitempty"`
	ClientLon *float64 `json:"clientLon,omitempty"`
	PublicIP  string   `json:"publicIP,omitempty"`
}

// HistoryRow is one persisted report.
type HistoryRow struct {
	ID         int64    `json:"id" db:"id"`
	DeviceID   string   `json:"deviceId" db:"deviceId"`
	Label      *string  `json:"label" db:"label"`
	PublicIP   *string  `json:"publicIP" db:"publicIP"`
	ClientLat  *float64 `json:"clientLat" db:"clientLat"`
	ClientLon  *float64 `json:"clientLon" db:"clientLon"`
	ReportedAt string   `json:"reportedAt" db:"reportedAt"`
}

// Geolocation status values
const (
	GeoStatusSuccess = "success"
	GeoStatusFail    = "fail"
)

// Geolocation is the result of resolving a public IP to a place.
// A failed lookup keeps Status=fail and the reason in Message.
type Geolocation struct {
	Status   string  `json:"status"`
	Message  string  `json:"message,omitempty"`
	Country  string  `json:"country,omitempty"`
	Region   string  `json:"regionName,omitempty"`
	City     string  `json:"city,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lon      float64 `json:"lon,omitempty"`
	Timezone string  `json:"timezone,omitempty"`
	ISP      string  `json:"isp,omitempty"`
	Query    string  `json:"query,omitempty"`
}

// FailedGeolocation builds the failure marker stored on a live entry.
func FailedGeolocation(ip string, err error) *Geolocation {
	msg := "lookup failed"
	if err != nil {
		msg = err.Error()
	}
	return &Geolocation{Status: GeoStatusFail, Message: msg, Query: ip}
}
