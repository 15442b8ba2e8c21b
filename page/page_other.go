//go:build !(linux || darwin || freebsd)

package page

import "errors"

// errUnsupported is returned on hosts with no mmap/mprotect-based allocator
// wired up. A Windows build would instead call VirtualAlloc(MEM_COMMIT,
// PAGE_READWRITE) here and VirtualProtect in place of Protect below, but no
// such collaborator exists to ground an implementation on, so it is left as
// a documented gap rather than invented.
var errUnsupported = errors.New("page: no allocator wired for this platform")

func mmapRegion(hint uintptr) (Region, error) { return Region{}, errUnsupported }
func unmapRegion(r Region) error              { return errUnsupported }
func protect(r Region, prot int) error        { return errUnsupported }

const (
	ProtRead  = 1
	ProtWrite = 2
	ProtExec  = 4
)

func Protect(r Region, prot int) error { return protect(r, prot) }
