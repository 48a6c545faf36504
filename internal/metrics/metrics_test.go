package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Recorders(t *testing.T) {
	m := New()
	m.Operation("steal", "ok")
	m.Operation("steal", "ok")
	m.Transaction("steal_fail")
	m.CommitFailed()
	m.SetAccounts(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("steal", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("steal_fail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commitFailures))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.accounts))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Operation("give", "ok")
		m.Transaction("give")
		m.CommitFailed()
		m.SetAccounts(1)
	})
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/ping", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
