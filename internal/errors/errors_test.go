package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReporter struct {
	enabled bool
	count   int
}

func (c *countingReporter) IsEnabled() bool { return c.enabled }

func (c *countingReporter) ReportError(ee *EnhancedError) {
	c.count++
	ee.MarkReported()
}

func TestBuildDefaults(t *testing.T) {
	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.Component)
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.Timestamp.IsZero())
}

func TestNilErrUsesCategoryAsMessage(t *testing.T) {
	ee := New(nil).Category(CategoryAudioDevice).Build()
	assert.Equal(t, "audio-device", ee.Error())
}

func TestIsMatchesSentinelThroughWrapping(t *testing.T) {
	sentinelA := New(NewStd("a failed")).Category(CategoryStreamBuild).Build()
	sentinelB := New(NewStd("b failed")).Category(CategoryStreamBuild).Build()

	wrapped := New(fmt.Errorf("%w: device busy", sentinelA)).
		Component("sound").
		Category(CategoryStreamBuild).
		Build()

	assert.ErrorIs(t, wrapped, sentinelA)
	assert.NotErrorIs(t, wrapped, sentinelB, "same category but different sentinel must not match")
	assert.True(t, IsCategory(wrapped, CategoryStreamBuild))
	assert.False(t, IsNotFound(wrapped))
}

func TestPriorityFallback(t *testing.T) {
	assert.Equal(t, PriorityHigh, New(nil).Priority(PriorityHigh).Build().Priority)
	assert.Equal(t, PriorityMedium, New(nil).Priority("urgent").Build().Priority)
	assert.Empty(t, New(nil).Priority("").Build().Priority)
}

func TestContextIsCopied(t *testing.T) {
	ee := New(NewStd("x")).Context("operation", "open_stream").Build()
	ctx := ee.GetContext()
	ctx["operation"] = "changed"
	assert.Equal(t, "open_stream", ee.GetContext()["operation"])
}

func TestTelemetryReporterReceivesErrors(t *testing.T) {
	reporter := &countingReporter{enabled: true}
	SetTelemetryReporter(reporter)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := New(NewStd("stream died")).Category(CategoryStream).Build()
	require.Equal(t, 1, reporter.count)
	assert.True(t, ee.IsReported())

	SetTelemetryReporter(&countingReporter{enabled: false})
	_ = New(NewStd("ignored")).Build()
	assert.Equal(t, 1, reporter.count)
}

func TestScrubMessageForPrivacy(t *testing.T) {
	scrubbed := scrubMessageForPrivacy("Error at https://api.example.com?api_key=secret123&token=abc")
	assert.Equal(t, "Error at https://api.example.com?[REDACTED]", scrubbed)

	scrubbed = scrubMessageForPrivacy("Config error: api_key=secret123 is invalid")
	assert.Contains(t, scrubbed, "[API_KEY_REDACTED]")
	assert.NotContains(t, scrubbed, "secret123")
}

func TestGenerateErrorTitle(t *testing.T) {
	ee := New(NewStd("x")).
		Component("sound").
		Category(CategoryStreamBuild).
		Context("operation", "build_output_stream").
		Build()
	assert.Equal(t, "Sound Stream Build Error Build Output Stream", generateErrorTitle(ee))
}
