package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AppointmentOperation("book", "success")
		m.HTTPRequest("GET", "/health", "200", time.Millisecond)
		m.CacheLookup(true)
		m.ReconcileFlips(1, 2)
		m.OverbookedSlot()
	})
}

func TestMetrics_CountersAndExposition(t *testing.T) {
	m := New()
	m.AppointmentOperation("book", "success")
	m.AppointmentOperation("book", "success")
	m.CacheLookup(false)
	m.ReconcileFlips(2, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.appointmentOps.WithLabelValues("book", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheRequests.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.reconcileFlips.WithLabelValues("occupy")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "medminion_appointment_operations_total")
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
