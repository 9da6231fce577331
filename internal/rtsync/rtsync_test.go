package rtsync

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/aliendaw/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type params struct {
	gain  float32
	steps []int
}

func copyParams(dst, src *params) {
	dst.gain = src.gain
	dst.steps = append(dst.steps[:0], src.steps...)
}

func TestAcquireUncontendedIsFresh(t *testing.T) {
	shared := NewShared(params{gain: 1})
	reader := NewSynchronizer(shared, copyParams)

	require.NoError(t, shared.Update(func(p *params) error {
		p.gain = 0.5
		p.steps = append(p.steps, 7)
		return nil
	}))

	g := reader.Acquire()
	assert.True(t, g.Fresh())
	assert.Equal(t, float32(0.5), g.Value().gain)
	assert.Equal(t, []int{7}, g.Value().steps)
	g.Release()

	assert.Equal(t, Stats{Fresh: 1}, reader.Stats())
}

func TestAcquireContendedReturnsCacheWithoutBlocking(t *testing.T) {
	shared := NewShared(params{gain: 1})
	reader := NewSynchronizer(shared, copyParams)

	g := reader.Acquire()
	g.Release()

	locked := make(chan struct{})
	unlock := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		_ = shared.Update(func(p *params) error {
			p.gain = 0.25
			close(locked)
			<-unlock
			return nil
		})
	}()
	<-locked

	start := time.Now()
	stale := reader.Acquire()
	elapsed := time.Since(start)

	assert.False(t, stale.Fresh())
	assert.Equal(t, float32(1), stale.Value().gain, "contended read serves the previous cache")
	assert.Less(t, elapsed, 50*time.Millisecond)
	stale.Release()

	close(unlock)
	<-writerDone

	fresh := reader.Acquire()
	assert.True(t, fresh.Fresh())
	assert.Equal(t, float32(0.25), fresh.Value().gain)
	fresh.Release()

	assert.Equal(t, Stats{Fresh: 2, Stale: 1}, reader.Stats())
}

func TestFreshGuardHoldsLockUntilRelease(t *testing.T) {
	shared := NewShared(params{})
	reader := NewSynchronizer(shared, copyParams)

	g := reader.Acquire()
	require.True(t, g.Fresh())

	updated := make(chan struct{})
	go func() {
		_ = shared.Update(func(p *params) error {
			p.gain = 2
			return nil
		})
		close(updated)
	}()

	// The writer must wait for the fresh guard.
	time.Sleep(20 * time.Millisecond)
	testutil.RequireEmpty(t, updated)

	g.Release()
	g.Release() // idempotent
	<-updated
	assert.Nil(t, g.Value())
}

func TestStaleReadAfterFreshReflectsLastRefresh(t *testing.T) {
	shared := NewShared(params{gain: 1})
	reader := NewSynchronizer(shared, copyParams)

	require.NoError(t, shared.Update(func(p *params) error { p.gain = 3; return nil }))
	g := reader.Acquire()
	g.Release()

	shared.mu.Lock()
	stale := reader.Acquire()
	assert.Equal(t, float32(3), stale.Value().gain)
	stale.Release()
	shared.mu.Unlock()
}

func TestReleaseCarriesReaderMutationsIntoCache(t *testing.T) {
	shared := NewShared(params{gain: 1})
	reader := NewSynchronizer(shared, copyParams)

	g := reader.Acquire()
	require.True(t, g.Fresh())
	g.Value().gain = 4
	g.Value().steps = append(g.Value().steps, 1, 2)
	g.Release()

	shared.mu.Lock()
	stale := reader.Acquire()
	assert.False(t, stale.Fresh())
	assert.Equal(t, float32(4), stale.Value().gain)
	assert.Equal(t, []int{1, 2}, stale.Value().steps)
	stale.Release()
	shared.mu.Unlock()
}

func TestConcurrentReaderAndWriter(t *testing.T) {
	shared := NewShared(params{})
	reader := NewSynchronizer(shared, copyParams)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 1000 {
			_ = shared.Update(func(p *params) error {
				p.gain = float32(i)
				p.steps = append(p.steps[:0], i, i)
				return nil
			})
		}
	}()

	var last float32
	for range 1000 {
		g := reader.Acquire()
		v := g.Value()
		assert.GreaterOrEqual(t, v.gain, last, "reads never go backwards")
		if len(v.steps) == 2 {
			assert.Equal(t, v.steps[0], v.steps[1])
		}
		last = v.gain
		g.Release()
	}
	wg.Wait()

	st := reader.Stats()
	assert.Equal(t, uint64(1000), st.Fresh+st.Stale)
}
