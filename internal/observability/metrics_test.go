package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/aliendaw/internal/observability/metrics"
)

func TestHandlerExposesSoundMetrics(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	m.Sound.RecordOperation(metrics.OpPlay, metrics.StatusSuccess)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `sound_operations_total{operation="play",status="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNewMetricsUsesPrivateRegistry(t *testing.T) {
	a, err := NewMetrics()
	require.NoError(t, err)
	b, err := NewMetrics()
	require.NoError(t, err)
	assert.NotSame(t, a.Registry(), b.Registry())
}
