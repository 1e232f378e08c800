package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"devicetracker/config"
	"devicetracker/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintHistory(t *testing.T) {
	label := "van"
	ip := "203.0.113.7"
	lat, lon := 37.5, 127.0

	var buf bytes.Buffer
	require.NoError(t, printHistory(&buf, []models.HistoryRow{
		{ID: 2, DeviceID: "d2", ReportedAt: "2025-01-01T00:00:02.000000Z"},
		{ID: 1, DeviceID: "d1", Label: &label, PublicIP: &ip, ClientLat: &lat, ClientLon: &lon, ReportedAt: "2025-01-01T00:00:01.000000Z"},
	}, time.UTC))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "d2")
	assert.Contains(t, lines[1], "-")
	assert.Contains(t, lines[2], "van")
	assert.Contains(t, lines[2], "203.0.113.7")
	assert.Contains(t, lines[2], "37.500000")
	assert.Contains(t, lines[2], "2025-01-01 00:00:01.000 UTC")
}

func TestFormatReportedAt(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)

	assert.Equal(t, "2025-01-01 09:00:00.250 KST", formatReportedAt("2025-01-01T00:00:00.250000Z", kst))
	assert.Equal(t, "2025-01-01 00:00:00.250 UTC", formatReportedAt("2025-01-01T00:00:00.250000Z", time.UTC))
	assert.Equal(t, "garbage", formatReportedAt("garbage", time.UTC))
	assert.Equal(t, "-", formatReportedAt("", time.UTC))
}

func TestBuildGeolocator(t *testing.T) {
	cfg := &config.Config{Geo: config.GeoConfig{Provider: config.GeoNone}}
	geo, closeFn, err := buildGeolocator(cfg)
	require.NoError(t, err)
	assert.Nil(t, geo)
	assert.NoError(t, closeFn())

	cfg.Geo = config.GeoConfig{Provider: config.GeoIPAPI, APIURL: "http://127.0.0.1:1/json/"}
	geo, _, err = buildGeolocator(cfg)
	require.NoError(t, err)
	assert.NotNil(t, geo)

	cfg.Geo = config.GeoConfig{Provider: config.GeoMaxMind, DBPath: "/nonexistent/GeoLite2-City.mmdb"}
	_, closeFn, err = buildGeolocator(cfg)
	assert.Error(t, err)
	assert.NotNil(t, closeFn)
}

func TestOpenHistoryDisabledIsDegraded(t *testing.T) {
	cfg := &config.Config{Database: config.DBConfig{Driver: config.DriverNone}}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	store := openHistory(ctx, cfg)
	assert.False(t, store.Available())
}
