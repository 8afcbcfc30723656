package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Independent(t *testing.T) {
	a, b := New(), New()
	a.TransactionsTotal.WithLabelValues("FREEAGENT", "EXECUTED").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.TransactionsTotal.WithLabelValues("FREEAGENT", "EXECUTED")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.TransactionsTotal.WithLabelValues("FREEAGENT", "EXECUTED")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.QuotaRemaining.Set(4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "fantasybot_quota_remaining 4")
}
