package services

import (
	"fmt"
	"sync"
	"testing"

	"devicetracker/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveRegistryUpsertAndGet(t *testing.T) {
	r := NewLiveRegistry()

	_, err := r.Get("missing")
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	r.Upsert(models.DeviceReport{DeviceID: "d1", PublicIP: "10.0.0.1"})
	r.Upsert(models.DeviceReport{DeviceID: "d1", PublicIP: "10.0.0.2"})

	got, err := r.Get("d1")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", got.PublicIP)
	assert.Equal(t, 1, r.Len())
}

func TestLiveRegistryListAll(t *testing.T) {
	r := NewLiveRegistry()
	assert.NotNil(t, r.ListAll())
	assert.Empty(t, r.ListAll())

	r.Upsert(models.DeviceReport{DeviceID: "b"})
	r.Upsert(models.DeviceReport{DeviceID: "a"})

	all := r.ListAll()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].DeviceID)
	assert.Equal(t, "b", all[1].DeviceID)
}

func TestLiveRegistryClear(t *testing.T) {
	r := NewLiveRegistry()
	r.Upsert(models.DeviceReport{DeviceID: "a"})
	r.Upsert(models.DeviceReport{DeviceID: "b"})

	assert.Equal(t, 2, r.Clear())
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, r.Clear())
}

func TestLiveRegistryConcurrentAccess(t *testing.T) {
	r := NewLiveRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			r.Upsert(models.DeviceReport{DeviceID: fmt.Sprintf("d%d", i%10)})
		}(i)
		go func() {
			defer wg.Done()
			_ = r.ListAll()
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, r.Len())
}

func TestLiveRegistryGaugeTracksSizeUnderConcurrentReset(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_live_devices"})
	r := newLiveRegistry(gauge)

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%7 == 0 {
				r.Clear()
				return
			}
			r.Upsert(models.DeviceReport{DeviceID: fmt.Sprintf("d%d", i%13)})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, float64(r.Len()), testutil.ToFloat64(gauge))

	r.Upsert(models.DeviceReport{DeviceID: "x"})
	assert.Equal(t, float64(r.Len()), testutil.ToFloat64(gauge))
	r.Clear()
	assert.Equal(t, 0.0, testutil.ToFloat64(gauge))
}
