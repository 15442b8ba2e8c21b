// Package page hands out page-aligned memory regions for the code buffer
// manager to carve procedures out of. It is the lowest layer of the
// generator: it knows nothing about instructions, only about pages.
package page

import (
	"errors"
	"fmt"
)

// Size is the fixed size of each region handed out by Allocate; the
// generator never requests a region smaller or larger than this.
const Size = 4096

// maxAddr32 is the highest address a 32-bit-addressable code heap may use.
// On targets where the host pointer width exceeds the target's, allocations
// must stay below this limit or inter-buffer branches and literal-pool
// pointers (both 32-bit quantities) cannot represent the address.
const maxAddr32 = 1 << 31

var (
	// ErrAllocationFailed is not returned by Allocate, which reports an
	// OS allocator failure as *OSError.
	ErrAllocationFailed = errors.New("page: allocation failed")

	// ErrAddressOutOfRange is returned when an allocation succeeded but
	// landed at or above the 32-bit-addressable limit.
	ErrAddressOutOfRange = errors.New("page: address out of 32-bit range")
)

// Region is a page-aligned block of memory owned by the caller. Bytes
// exposes the live backing memory; writes through it are visible to
// whatever protection mode is currently in effect (and will fault if the
// region has been switched to execute-only).
type Region struct {
	Bytes []byte
	Addr  uintptr
}

// OSError wraps a failed OS-level call (mmap, mprotect, ...), keeping the
// underlying errno available via errors.Unwrap.
type OSError struct {
	Op  string
	Err error
}

func (e *OSError) Error() string { return fmt.Sprintf("page: %s failed: %v", e.Op, e.Err) }
func (e *OSError) Unwrap() error { return e.Err }

// Allocator hands out Size-byte regions, one page at a time, for the code
// buffer to chain together. It records the end of its last successful
// allocation as hint, matching the teacher's static last_addr, but the
// mapping call does not use it, so successive regions are not placed
// contiguously.
type Allocator struct {
	constrain32 bool
	hint        uintptr
}

// New creates an Allocator. When constrain32 is true, every returned
// address is checked against the 2 GiB limit required by 64-on-32 targets;
// on a genuinely 32-bit host this check is always satisfied for free.
func New(constrain32 bool) *Allocator {
	return &Allocator{constrain32: constrain32}
}

// Allocate returns a single page-aligned, page-sized, read-write region.
// Protection is raised to executable later, by the code buffer, once the
// region holds finished instructions.
func (a *Allocator) Allocate() (Region, error) {
	r, err := mmapRegion(a.hint)
	if err != nil {
		return Region{}, err
	}

	if a.constrain32 && uint64(r.Addr) >= maxAddr32 {
		unmapRegion(r)
		return Region{}, ErrAddressOutOfRange
	}

	a.hint = r.Addr + uintptr(Size)
	return r, nil
}

// Free releases a region obtained from Allocate. The code buffer never
// calls this for pages holding live procedures (callable code pages are
// retained for the process lifetime per the resource model) -- it exists
// for the allocator's own error paths and for tests.
func (a *Allocator) Free(r Region) error {
	return unmapRegion(r)
}
