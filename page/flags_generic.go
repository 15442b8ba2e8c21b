//go:build (linux && !amd64) || darwin || freebsd

package page

import "golang.org/x/sys/unix"

// mmapFlags on hosts without MAP_32BIT is a plain anonymous private mapping.
// The hint parameter is advisory only -- see Allocator.hint -- and is not
// passed to mmap here since this package never requests a fixed address
// (MAP_FIXED would risk clobbering existing mappings).
func mmapFlags(hint uintptr) int {
	return unix.MAP_PRIVATE | unix.MAP_ANONYMOUS
}
