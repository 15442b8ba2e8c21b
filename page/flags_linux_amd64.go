//go:build linux && amd64

package page

import "golang.org/x/sys/unix"

// mmapFlags requests MAP_32BIT on linux/amd64 so that successive code pages
// land under the 2 GiB line. hint is otherwise unused here: MAP_32BIT
// already does a better job of keeping the heap low than any address hint
// would on this platform.
func mmapFlags(hint uintptr) int {
	return unix.MAP_PRIVATE | unix.MAP_ANONYMOUS | unix.MAP_32BIT
}
