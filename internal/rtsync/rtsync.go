// Package rtsync lets a real-time reader observe a value owned by a control
// goroutine without ever waiting for it.
//
// The control side edits the master copy inside Shared under an ordinary
// mutex. The reader's Synchronizer tries the lock once per Acquire: on
// success it refreshes a private cache from the master, reads the master
// directly and copies it back into the cache on Release, so reads that
// mutate the value (oscillator phase) carry over into the next stale read.
// On failure it reads the cache.
package rtsync

import (
	"sync"
	"sync/atomic"
)

// CopyFunc copies src into dst. Implementations should reuse dst's storage
// so refreshes of an unchanged shape do not allocate.
type CopyFunc[T any] func(dst, src *T)

// Shared is the mutex-guarded master copy of a value.
type Shared[T any] struct {
	mu    sync.Mutex
	value T
}

// NewShared wraps an initial value.
func NewShared[T any](value T) *Shared[T] {
	return &Shared[T]{value: value}
}

// Update runs fn with exclusive access to the master value. It blocks while
// the reader holds a fresh guard, which lasts at most one callback.
func (s *Shared[T]) Update(fn func(*T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.value)
}

// View runs fn with exclusive access to the master value for inspection.
func (s *Shared[T]) View(fn func(*T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.value)
}

// Stats counts how reads were served.
type Stats struct {
	Fresh uint64 `json:"fresh"`
	Stale uint64 `json:"stale"`
}

// Synchronizer is the reader side. It must be used by one goroutine at a
// time: the audio driver never overlaps callback invocations.
type Synchronizer[T any] struct {
	shared *Shared[T]
	cache  T
	copyFn CopyFunc[T]
	fresh  atomic.Uint64
	stale  atomic.Uint64
}

// NewSynchronizer seeds the reader cache from the master with a blocking
// read. Call it on the control goroutine, before the stream starts.
func NewSynchronizer[T any](shared *Shared[T], copyFn CopyFunc[T]) *Synchronizer[T] {
	s := &Synchronizer[T]{shared: shared, copyFn: copyFn}
	shared.View(func(v *T) {
		copyFn(&s.cache, v)
	})
	return s
}

// Guard is a read handle valid until Release.
type Guard[T any] struct {
	value  *T
	shared *Shared[T]
	cache  *T
	copyFn CopyFunc[T]
}

// Value returns the value to read from: the master when fresh, the cache when stale.
func (g *Guard[T]) Value() *T {
	return g.value
}

// Fresh reports whether the guard holds the master lock.
func (g *Guard[T]) Fresh() bool {
	return g.shared != nil
}

// Release ends the read. A fresh guard syncs the cache to the master before
// unlocking it. Subsequent calls are no-ops.
func (g *Guard[T]) Release() {
	if g.shared != nil {
		g.copyFn(g.cache, &g.shared.value)
		g.shared.mu.Unlock()
		g.shared = nil
	}
	g.value = nil
	g.cache = nil
}

// Acquire never blocks. It returns a guard over the live master after
// refreshing the cache, or over the cache if the control side holds the lock.
func (s *Synchronizer[T]) Acquire() Guard[T] {
	if s.shared.mu.TryLock() {
		s.copyFn(&s.cache, &s.shared.value)
		s.fresh.Add(1)
		return Guard[T]{value: &s.shared.value, shared: s.shared, cache: &s.cache, copyFn: s.copyFn}
	}
	s.stale.Add(1)
	return Guard[T]{value: &s.cache}
}

// Stats returns the fresh and stale read counts so far.
func (s *Synchronizer[T]) Stats() Stats {
	return Stats{Fresh: s.fresh.Load(), Stale: s.stale.Load()}
}
