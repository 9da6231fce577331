// Package metrics provides custom Prometheus metrics for the sound server.
package metrics

// Recorder defines a minimal interface for recording metrics.
// Components depend on it rather than on a concrete collector so tests can
// pass a fake.
type Recorder interface {
	// RecordOperation records an operation such as "play" or "build_stream"
	// with its status, "success" or "error".
	RecordOperation(operation, status string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(operation string, seconds float64)

	// RecordError records an error occurrence with its type.
	RecordError(operation, errorType string)
}

var _ Recorder = (*SoundMetrics)(nil)
