//go:build ruleguard

// Package gorules defines custom linter rules for aliendaw.
//
// The render path is the code run by the audio driver thread: the output
// callback and Node.Sample. It must not block, log or allocate.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

const renderPathFiles = `(internal/sound/callback|internal/synth/node)\.go$`

// RenderPathLogging reports logger calls in render path files.
//
//	func (n *Node) Sample() float32 {
//	    GetLogger().Debug("sample")   // flagged
//	}
func RenderPathLogging(m dsl.Matcher) {
	m.Match(
		`$l.Trace($*_)`,
		`$l.Debug($*_)`,
		`$l.Info($*_)`,
		`$l.Warn($*_)`,
		`$l.Error($*_)`,
	).
		Where(m.File().PkgPath.Matches(`aliendaw/internal/(sound|synth)$`) &&
			m.File().Name.Matches(`^(callback|node)\.go$`) &&
			m["l"].Type.Implements(`github.com/tphakala/aliendaw/internal/logger.Logger`)).
		Report("no logging on the render path; report through the overrun or error channel")
}

// RenderPathFormatting reports fmt usage in render path files.
func RenderPathFormatting(m dsl.Matcher) {
	m.Match(`fmt.$f($*_)`).
		Where(m.File().PkgPath.Matches(`aliendaw/internal/(sound|synth)$`) &&
			m.File().Name.Matches(`^(callback|node)\.go$`)).
		Report("fmt.$f allocates; keep it off the render path")
}

// RenderPathSleep reports sleeps and blocking lock calls in render path files.
// The graph is read through rtsync.Synchronizer.Acquire, which only try-locks.
func RenderPathSleep(m dsl.Matcher) {
	m.Match(`time.Sleep($_)`).
		Where(m.File().PkgPath.Matches(`aliendaw/internal/(sound|synth)$`) &&
			m.File().Name.Matches(`^(callback|node)\.go$`)).
		Report("time.Sleep blocks the audio thread")

	m.Match(`$mu.Lock()`, `$mu.RLock()`).
		Where(m.File().PkgPath.Matches(`aliendaw/internal/(sound|synth)$`) &&
			m.File().Name.Matches(`^(callback|node)\.go$`) &&
			(m["mu"].Type.Is(`sync.Mutex`) || m["mu"].Type.Is(`*sync.Mutex`) ||
				m["mu"].Type.Is(`sync.RWMutex`) || m["mu"].Type.Is(`*sync.RWMutex`))).
		Report("blocking lock on the render path; use rtsync.Synchronizer")
}

// BlockingReportSend reports bare channel sends of callback reports. Reports
// must use select with a default case so an absent consumer never stalls
// the driver.
//
//	ch <- CallbackOverrun{...}          // flagged
//	select { case ch <- ev: default: }  // ok
func BlockingReportSend(m dsl.Matcher) {
	m.Match(`$ch <- $v`).
		Where(m.File().PkgPath.Matches(`aliendaw/internal/sound$`) &&
			m.File().Name.Matches(`^callback\.go$`) &&
			!m["$$"].Node.Parent().Is(`CommClause`)).
		Report("send $v with select/default; the render path must not block on $ch")
}
