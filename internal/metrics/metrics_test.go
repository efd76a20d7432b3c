package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.ChatRequestsTotal.WithLabelValues("success").Inc()
	m.LeadsTotal.WithLabelValues("appointment", "success").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChatRequestsTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LeadsTotal.WithLabelValues("appointment", "success")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "dentalchat_chat_requests_total")
	assert.Contains(t, string(body), `dentalchat_leads_total{kind="appointment",outcome="success"} 2`)
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.WidgetConnections.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.WidgetConnections))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.WidgetConnections))
}
