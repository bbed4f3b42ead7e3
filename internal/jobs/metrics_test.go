package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue sums the samples of name whose labels include want.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	metrics:
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue metrics
				}
			}
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	assert.NoError(t, m.Track("product:purge_refs").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("product:purge_refs").End(boom), boom)

	assert.Equal(t, 1.0, counterValue(t, reg, "storefront_jobs_total", map[string]string{"job": "product:purge_refs", "status": "success"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "storefront_jobs_total", map[string]string{"job": "product:purge_refs", "status": "failure"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "storefront_jobs_failures_total", map[string]string{"job": "product:purge_refs"}))
}

func TestAddPurged(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.AddPurged("product:purge_orphans", 3)
	m.AddPurged("product:purge_orphans", 0)
	assert.Equal(t, 3.0, counterValue(t, reg, "storefront_job_references_purged_total", map[string]string{"job": "product:purge_orphans"}))

	nilMetrics := NewMetrics(nil)
	assert.Nil(t, nilMetrics)
	nilMetrics.AddPurged("x", 1)
	assert.NoError(t, nilMetrics.Track("x").End(nil))
}
