//go:build !(linux && arm)

package codebuf

// flushFragments is a no-op on hosts that are not themselves running ARM:
// there is no ARM instruction cache to flush, since the bytes this process
// writes are only ever executed by a real ARM core elsewhere (or, in this
// module's own tests, interpreted in software by armsim, which reads
// memory directly and has no cache to go stale). Preserved as an explicit
// stub rather than silently folded away: a future arm64-hosted build
// should not assume this path was ever exercised.
func flushFragments(frags []fragment) error { return nil }
