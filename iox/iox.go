// Package iox holds the cleanup helpers shared by the kernel, the
// replay harness, and the tests.
package iox

import "io"

// DiscardClose closes c, dropping the error. For teardown sites that
// have no way to act on a close failure:
//
//	iox.DiscardClose(kern)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc adapts a Closer to the no-argument function t.Cleanup and
// b.Cleanup expect:
//
//	t.Cleanup(iox.CloseFunc(kern))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// DiscardErr runs fn and drops its error. For cleanup calls that are
// not closes, like killing an already-condemned process:
//
//	iox.DiscardErr(driver.Kill)
func DiscardErr(fn func() error) { _ = fn() }

// CloseAll closes every non-nil closer in order and returns the first
// error encountered. All closers are attempted regardless of earlier
// failures. Callers holding typed pointers must skip nil ones
// themselves; a nil *os.File wrapped in io.Closer is not nil here.
func CloseAll(closers ...io.Closer) error {
	var first error
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
