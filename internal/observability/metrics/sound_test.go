package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOperation(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewSoundMetrics(registry)
	require.NoError(t, err)

	m.RecordOperation(OpPlay, StatusSuccess)
	m.RecordOperation(OpPlay, StatusSuccess)
	m.RecordOperation(OpBuildStream, StatusError)
	m.RecordError(OpBuildStream, "stream-build")

	assert.InDelta(t, 2, testutil.ToFloat64(m.operationsTotal.WithLabelValues(OpPlay, StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.operationsTotal.WithLabelValues(OpBuildStream, StatusError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.operationErrors.WithLabelValues(OpBuildStream, "stream-build")), 0)
}

func TestRecordStreamErrorAndOverrun(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewSoundMetrics(registry)
	require.NoError(t, err)

	m.RecordStreamError("stream", false)
	m.RecordStreamError("stream", true)
	m.RecordOverrun(0.02, 0.01)

	assert.InDelta(t, 2, testutil.ToFloat64(m.streamErrorsTotal.WithLabelValues("stream")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.streamErrorsSuppressed), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.overrunsTotal), 0)
}

func TestSnapshotSourceExportedOnScrape(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewSoundMetrics(registry)
	require.NoError(t, err)

	m.SetSnapshotSource(func() SoundSnapshot {
		return SoundSnapshot{FreshReads: 10, StaleReads: 3, TapWritten: 4096, TapDropped: 128}
	})

	expected := `
# HELP sound_sync_reads_total Real-time graph reads by how they were served
# TYPE sound_sync_reads_total counter
sound_sync_reads_total{result="fresh"} 10
sound_sync_reads_total{result="stale"} 3
`
	err = testutil.GatherAndCompare(registry, strings.NewReader(expected), "sound_sync_reads_total")
	assert.NoError(t, err)

	expected = `
# HELP sound_tap_bytes_total Bytes offered to the output tap
# TYPE sound_tap_bytes_total counter
sound_tap_bytes_total{status="dropped"} 128
sound_tap_bytes_total{status="written"} 4096
`
	err = testutil.GatherAndCompare(registry, strings.NewReader(expected), "sound_tap_bytes_total")
	assert.NoError(t, err)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewSoundMetrics(registry)
	require.NoError(t, err)
	_, err = NewSoundMetrics(registry)
	assert.Error(t, err)
}
