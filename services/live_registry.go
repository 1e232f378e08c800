package services

import (
	"sort"
	"sync"

	"devicetracker/metrics"
	"devicetracker/models"

	"github.com/prometheus/client_golang/prometheus"
)

// LiveRegistry holds the most recent report per device. It is volatile and
// safe for concurrent use. The size gauge is updated under the same lock as
// the map.
type LiveRegistry struct {
	mu      sync.RWMutex
	devices map[string]models.DeviceReport
	size    prometheus.Gauge
}

func NewLiveRegistry() *LiveRegistry {
	return newLiveRegistry(metrics.LiveDevices)
}

func newLiveRegistry(size prometheus.Gauge) *LiveRegistry {
	return &LiveRegistry{
		devices: make(map[string]models.DeviceReport),
		size:    size,
	}
}

// Upsert replaces any existing entry for report.DeviceID.
func (r *LiveRegistry) Upsert(report models.DeviceReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[report.DeviceID] = report
	r.size.Set(float64(len(r.devices)))
}

// ListAll returns every entry. Sorted by device id so output is stable; callers
// must not rely on the order.
func (r *LiveRegistry) ListAll() []models.DeviceReport {
	r.mu.RLock()
	out := make([]models.DeviceReport, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out
}

func (r *LiveRegistry) Get(id string) (models.DeviceReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[id]
	if !ok {
		return models.DeviceReport{}, ErrDeviceNotFound
	}
	return d, nil
}

// Clear drops all entries and returns how many there were.
func (r *LiveRegistry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.devices)
	r.devices = make(map[string]models.DeviceReport)
	r.size.Set(0)
	return n
}

func (r *LiveRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}
