// Package testutil provides shared helpers for tests that wait on goroutines
// and channels.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Test timeouts.
const (
	// DefaultTestTimeout is the standard timeout for async test operations.
	DefaultTestTimeout = 5 * time.Second

	// ShortTestTimeout is for operations expected to complete quickly.
	ShortTestTimeout = 1 * time.Second
)

// WaitForChannel waits for a signal on ch or fails after timeout.
func WaitForChannel(t *testing.T, ch <-chan struct{}, timeout time.Duration, msg string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		require.Fail(t, msg)
	}
}

// Receive returns the next value from ch or fails after timeout.
func Receive[T any](t *testing.T, ch <-chan T, timeout time.Duration) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		require.Failf(t, "timed out", "no value received within %s", timeout)
		var zero T
		return zero
	}
}

// RequireEmpty fails if ch holds a value right now.
func RequireEmpty[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		require.Failf(t, "unexpected value", "channel held %v", v)
	default:
	}
}

// CompletesWithin runs fn in a goroutine and fails if it has not returned
// within timeout. It is used to assert that a call does not block.
func CompletesWithin(t *testing.T, timeout time.Duration, msg string, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	WaitForChannel(t, done, timeout, msg)
}
