//go:build linux || darwin || freebsd

package page

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// mmapRegion asks the OS for one page-sized, read-write, anonymous private
// mapping. hint is passed only to mmapFlags, which ignores it; unix.Mmap
// takes no address, so the kernel chooses where each mapping lands.
func mmapRegion(hint uintptr) (Region, error) {
	b, err := unix.Mmap(-1, 0, Size, unix.PROT_READ|unix.PROT_WRITE, mmapFlags(hint))
	if err != nil {
		return Region{}, &OSError{Op: "mmap", Err: err}
	}

	return Region{Bytes: b, Addr: uintptr(unsafe.Pointer(&b[0]))}, nil
}

func unmapRegion(r Region) error {
	if err := unix.Munmap(r.Bytes); err != nil {
		return &OSError{Op: "munmap", Err: err}
	}
	return nil
}

// protect transitions a region's protection. p is one of the Prot* modes
// below; the region must be exactly one page.
func protect(r Region, prot int) error {
	if err := unix.Mprotect(r.Bytes, prot); err != nil {
		return &OSError{Op: "mprotect", Err: err}
	}
	return nil
}

const (
	ProtRead    = unix.PROT_READ
	ProtWrite   = unix.PROT_WRITE
	ProtExec    = unix.PROT_EXEC
)

// Protect exposes protect to the code buffer, which is the only other
// package allowed to change a region's protection after allocation.
func Protect(r Region, prot int) error { return protect(r, prot) }
