package geoip

import (
	"context"
	"fmt"
	"net"
	"strings"

	"devicetracker/models"

	"github.com/oschwald/maxminddb-golang"
)

// cityRecord covers the GeoLite2/GeoIP2 City fields we surface. ASN-style
// databases populate only AutonomousSystemOrg.
type cityRecord struct {
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	Subdivisions []struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"subdivisions"`
	Location struct {
		Latitude  float64 `maxminddb:"latitude"`
		Longitude float64 `maxminddb:"longitude"`
		TimeZone  string  `maxminddb:"time_zone"`
	} `maxminddb:"location"`
	AutonomousSystemOrg string `maxminddb:"autonomous_system_organization"`
}

// MaxMindLocator resolves IPs from a local .mmdb file, no network involved.
type MaxMindLocator struct {
	reader *maxminddb.Reader
}

// OpenMaxMind memory-maps the database at path.
func OpenMaxMind(path string) (*MaxMindLocator, error) {
	r, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database %s: %w", path, err)
	}
	return &MaxMindLocator{reader: r}, nil
}

func (m *MaxMindLocator) Lookup(_ context.Context, ip string) (models.Geolocation, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return models.Geolocation{}, ErrEmptyIP
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return models.Geolocation{}, fmt.Errorf("invalid ip %q", ip)
	}

	var rec cityRecord
	_, ok, err := m.reader.LookupNetwork(parsed, &rec)
	if err != nil {
		return models.Geolocation{}, err
	}
	if !ok {
		return models.Geolocation{}, fmt.Errorf("no geoip record for %s", ip)
	}

	geo := models.Geolocation{
		Status:   models.GeoStatusSuccess,
		Country:  englishName(rec.Country.Names),
		City:     englishName(rec.City.Names),
		Lat:      rec.Location.Latitude,
		Lon:      rec.Location.Longitude,
		Timezone: rec.Location.TimeZone,
		ISP:      rec.AutonomousSystemOrg,
		Query:    ip,
	}
	if geo.Country == "" {
		geo.Country = rec.Country.ISOCode
	}
	if len(rec.Subdivisions) > 0 {
		geo.Region = englishName(rec.Subdivisions[0].Names)
	}
	return geo, nil
}

func (m *MaxMindLocator) Close() error {
	return m.reader.Close()
}

func englishName(names map[string]string) string {
	if names == nil {
		return ""
	}
	return names["en"]
}
