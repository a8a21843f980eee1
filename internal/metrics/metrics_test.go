package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstancesAreIndependent(t *testing.T) {
	a := New()
	b := New()

	a.Checkouts.WithLabelValues("created").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Checkouts.WithLabelValues("created")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Checkouts.WithLabelValues("created")))
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.OrdersFulfilled.Inc()
	m.WebhookEvents.WithLabelValues("checkout.session.completed", "processed").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "marketplace_orders_fulfilled_total 1")
	assert.Contains(t, string(body), `marketplace_webhook_events_total{outcome="processed",type="checkout.session.completed"} 1`)
}
