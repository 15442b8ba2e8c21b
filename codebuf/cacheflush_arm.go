//go:build linux && arm

package codebuf

import "golang.org/x/sys/unix"

// flushFragments clears the written ranges from the data cache and
// invalidates them in the instruction cache, via the Linux ARM
// cacheflush(2) syscall. This is only necessary (and only available) on
// actual ARM hosts; see cacheflush_stub.go for every other target.
func flushFragments(frags []fragment) error {
	for _, f := range frags {
		if err := unix.CacheFlush(f.start, f.end, 0); err != nil {
			return &cacheFlushError{err}
		}
	}
	return nil
}

type cacheFlushError struct{ err error }

func (e *cacheFlushError) Error() string { return "codebuf: cacheflush: " + e.err.Error() }
func (e *cacheFlushError) Unwrap() error { return e.err }
