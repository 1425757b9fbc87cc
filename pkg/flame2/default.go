package flame2

import "sync"

// Default lazily builds and returns a process-wide Runtime singleton,
// the one sanctioned package-level global in this package (mirroring
// the teacher's own single exception to "construct and pass by
// reference" — its builtin-config singleton). Most programs should
// prefer NewRuntime for explicit construction; Default exists for
// small single-simulation programs and for tests that want a clean
// slate via ResetForTest.
func Default() *Runtime {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultOnce.Do(func() {
		defaultRuntime = NewRuntime()
	})
	return defaultRuntime
}

// ResetForTest discards the default Runtime so the next Default call
// rebuilds it from scratch. Test-only: production code should not call
// this, since it invalidates any handle obtained from the previous
// Default().
func ResetForTest() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultOnce = sync.Once{}
	defaultRuntime = nil
}

var (
	defaultMu      sync.Mutex
	defaultOnce    sync.Once
	defaultRuntime *Runtime
)
