package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.IncUnknownField("newBetaField")
	m.IncUnknownField("newBetaField")
	m.EventsProcessed.Inc()

	assert.InDelta(t, 2, testutil.ToFloat64(m.UnknownFields.WithLabelValues("newBetaField")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.EventsProcessed), 0)

	n, err := testutil.GatherAndCount(reg, "trailview_unknown_fields_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		NewWithRegistry(prometheus.NewRegistry())
		NewWithRegistry(prometheus.NewRegistry())
	})
}
