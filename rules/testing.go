//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// TestingContext reports context.Background() or context.TODO() in tests.
// Servers, monitors and recorders exit on cancellation, and goleak checks
// that they did; t.Context() is cancelled when the test ends.
func TestingContext(m dsl.Matcher) {
	m.Match(
		`$ctx := context.Background()`,
		`$ctx = context.Background()`,
		`$ctx := context.TODO()`,
		`$ctx = context.TODO()`,
		`$fn(context.Background(), $*args)`,
		`$fn(context.TODO(), $*args)`,
	).
		Where(m.File().Name.Matches(`_test\.go$`)).
		Report("in tests, use t.Context() so goroutines stop when the test ends")
}

// ChannelTimeout reports hand-written select/time.After waits in tests.
//
//	select {
//	case v := <-ch:
//	case <-time.After(time.Second):
//	    t.Fatal("timeout")
//	}
//
// testutil.Receive and testutil.WaitForChannel do the same with a
// consistent failure message.
func ChannelTimeout(m dsl.Matcher) {
	m.Match(
		`select { case $x := <-$ch: $*_; case <-time.After($d): $*_ }`,
		`select { case <-$ch: $*_; case <-time.After($d): $*_ }`,
	).
		Where(m.File().Name.Matches(`_test\.go$`) &&
			!m.File().PkgPath.Matches(`internal/testutil$`)).
		Report("use testutil.Receive or testutil.WaitForChannel instead of select with time.After")
}

// BenchmarkLoop reports b.N loops; use b.Loop().
func BenchmarkLoop(m dsl.Matcher) {
	m.Match(`for range $b.N { $*body }`).
		Where(m["b"].Type.Is("*testing.B")).
		Report("use for $b.Loop() { ... } instead of for range $b.N").
		Suggest("for $b.Loop() { $body }")
}
