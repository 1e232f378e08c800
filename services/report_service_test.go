package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"devicetracker/metrics"
	"devicetracker/models"
	"devicetracker/utils"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func fixedClock(ts time.Time) *utils.MonotonicClock {
	return utils.NewMonotonicClock(func() time.Time { return ts })
}

func TestIngestRecordsLiveAndHistory(t *testing.T) {
	live := NewLiveRegistry()
	history := newSQLiteHistory(t)
	svc := NewReportService(live, history, ReportServiceOptions{
		Clock: fixedClock(time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)),
	})

	report, err := svc.Ingest(context.Background(), models.ReportRequest{
		DeviceID:  "  d1 ",
		Label:     strPtr("van"),
		ClientLat: f64Ptr(1.0),
		ClientLon: f64Ptr(2.0),
	}, "::ffff:203.0.113.7")
	require.NoError(t, err)

	assert.Equal(t, "d1", report.DeviceID)
	assert.Equal(t, "203.0.113.7", report.PublicIP)
	assert.Equal(t, "2025-05-01T10:00:00.000000Z", report.ReportedAt)
	assert.Nil(t, report.Geo)

	got, err := live.Get("d1")
	require.NoError(t, err)
	assert.Equal(t, report, got)

	rows, err := history.QueryAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "d1", rows[0].DeviceID)
	require.NotNil(t, rows[0].PublicIP)
	assert.Equal(t, "203.0.113.7", *rows[0].PublicIP)
	assert.Equal(t, report.ReportedAt, rows[0].ReportedAt)
}

func TestIngestPrefersPayloadIP(t *testing.T) {
	svc := NewReportService(NewLiveRegistry(), UnavailableHistoryStore(nil), ReportServiceOptions{})

	report, err := svc.Ingest(context.Background(), models.ReportRequest{
		DeviceID: "d1",
		PublicIP: "::ffff:198.51.100.9",
	}, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.9", report.PublicIP)
}

func TestIngestRequiresDeviceID(t *testing.T) {
	live := NewLiveRegistry()
	ctrl := gomock.NewController(t)
	history := NewMockHistoryStore(ctrl) // no calls expected

	svc := NewReportService(live, history, ReportServiceOptions{})

	_, err := svc.Ingest(context.Background(), models.ReportRequest{DeviceID: "   "}, "10.0.0.1")
	assert.ErrorIs(t, err, ErrBadRequest)
	assert.Equal(t, 0, live.Len())
}

func TestIngestAutoDeviceID(t *testing.T) {
	live := NewLiveRegistry()
	svc := NewReportService(live, UnavailableHistoryStore(nil), ReportServiceOptions{AutoDeviceID: true})

	report, err := svc.Ingest(context.Background(), models.ReportRequest{}, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(report.DeviceID, "dev"), report.DeviceID)
	assert.Equal(t, 1, live.Len())
}

func TestIngestLastWriteWins(t *testing.T) {
	live := NewLiveRegistry()
	history := newSQLiteHistory(t)
	svc := NewReportService(live, history, ReportServiceOptions{})
	ctx := context.Background()

	_, err := svc.Ingest(ctx, models.ReportRequest{DeviceID: "d1", ClientLat: f64Ptr(1)}, "10.0.0.1")
	require.NoError(t, err)
	second, err := svc.Ingest(ctx, models.ReportRequest{DeviceID: "d1", ClientLat: f64Ptr(2)}, "10.0.0.2")
	require.NoError(t, err)

	got, err := live.Get("d1")
	require.NoError(t, err)
	assert.Equal(t, second, got)
	assert.Equal(t, 1, live.Len())

	rows, err := history.QueryAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2.0, *rows[0].ClientLat)
	assert.GreaterOrEqual(t, rows[0].ReportedAt, rows[1].ReportedAt)
}

func TestIngestSwallowsHistoryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	history := NewMockHistoryStore(ctrl)
	history.EXPECT().Available().Return(true)
	history.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	live := NewLiveRegistry()
	svc := NewReportService(live, history, ReportServiceOptions{})

	failedBefore := testutil.ToFloat64(metrics.HistoryWrites.WithLabelValues("failed"))

	report, err := svc.Ingest(context.Background(), models.ReportRequest{DeviceID: "d1"}, "10.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, "d1", report.DeviceID)
	assert.Equal(t, 1, live.Len())
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(metrics.HistoryWrites.WithLabelValues("failed")))
}

func TestIngestSkipsUnavailableHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	history := NewMockHistoryStore(ctrl)
	history.EXPECT().Available().Return(false)

	svc := NewReportService(NewLiveRegistry(), history, ReportServiceOptions{})

	_, err := svc.Ingest(context.Background(), models.ReportRequest{DeviceID: "d1"}, "10.0.0.1")
	require.NoError(t, err)
}

func TestIngestHistoryWriteIgnoresRequestCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	history := NewMockHistoryStore(ctrl)
	history.EXPECT().Available().Return(true)

	var (
		writeErr    error
		hasDeadline bool
	)
	history.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ models.DeviceReport) error {
			writeErr = ctx.Err()
			_, hasDeadline = ctx.Deadline()
			return writeErr
		})

	svc := NewReportService(NewLiveRegistry(), history, ReportServiceOptions{WriteTimeout: time.Minute})

	// client already gone
	reqCtx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Ingest(reqCtx, models.ReportRequest{DeviceID: "d1"}, "10.0.0.1")
	require.NoError(t, err)

	assert.NoError(t, writeErr)
	assert.True(t, hasDeadline)
}

func TestIngestReturnsAfterHistoryRowIsVisible(t *testing.T) {
	history := newSQLiteHistory(t)
	svc := NewReportService(NewLiveRegistry(), history, ReportServiceOptions{})
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		_, err := svc.Ingest(ctx, models.ReportRequest{DeviceID: "d1"}, "10.0.0.1")
		require.NoError(t, err)

		n, err := history.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
}

func TestIngestGeolocation(t *testing.T) {
	ctrl := gomock.NewController(t)
	geo := NewMockGeolocator(ctrl)
	geo.EXPECT().Lookup(gomock.Any(), "203.0.113.7").Return(models.Geolocation{
		Status:  models.GeoStatusSuccess,
		Country: "South Korea",
		City:    "Seoul",
		Query:   "203.0.113.7",
	}, nil)
	geo.EXPECT().Lookup(gomock.Any(), "198.51.100.1").Return(models.Geolocation{}, errors.New("timeout"))

	live := NewLiveRegistry()
	svc := NewReportService(live, UnavailableHistoryStore(nil), ReportServiceOptions{Geolocator: geo})
	ctx := context.Background()

	ok, err := svc.Ingest(ctx, models.ReportRequest{DeviceID: "d1"}, "203.0.113.7")
	require.NoError(t, err)
	require.NotNil(t, ok.Geo)
	assert.Equal(t, models.GeoStatusSuccess, ok.Geo.Status)
	assert.Equal(t, "Seoul", ok.Geo.City)

	failed, err := svc.Ingest(ctx, models.ReportRequest{DeviceID: "d2"}, "198.51.100.1")
	require.NoError(t, err)
	require.NotNil(t, failed.Geo)
	assert.Equal(t, models.GeoStatusFail, failed.Geo.Status)
	assert.Contains(t, failed.Geo.Message, "timeout")
	assert.Equal(t, "198.51.100.1", failed.Geo.Query)

	stored, err := live.Get("d2")
	require.NoError(t, err)
	assert.Equal(t, models.GeoStatusFail, stored.Geo.Status)
}

func TestResetClearsLiveOnly(t *testing.T) {
	live := NewLiveRegistry()
	history := newSQLiteHistory(t)
	svc := NewReportService(live, history, ReportServiceOptions{})
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		_, err := svc.Ingest(ctx, models.ReportRequest{DeviceID: id}, "10.0.0.1")
		require.NoError(t, err)
	}

	assert.Equal(t, 2, svc.Reset())
	assert.Equal(t, 0, live.Len())
	assert.Equal(t, 0, svc.Reset())

	n, err := history.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestIngestConcurrentReportsAllReachHistory(t *testing.T) {
	live := NewLiveRegistry()
	history := newSQLiteHistory(t)
	svc := NewReportService(live, history, ReportServiceOptions{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "d" + string(rune('a'+i%5))
			_, err := svc.Ingest(ctx, models.ReportRequest{DeviceID: id}, "10.0.0.1")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, live.Len())
	n, err := history.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}
