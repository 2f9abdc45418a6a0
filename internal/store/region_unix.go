//go:build unix

package store

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Region is a single anonymous MAP_SHARED mapping that backs a Store's
// arrays. No library in the retrieval pack provides POSIX shared-memory
// mapping, so this leans directly on golang.org/x/sys/unix, the
// standard Go binding for the mmap(2)/munmap(2) syscalls; see
// DESIGN.md for why no third-party library could serve this concern.
type Region struct {
	buf []byte
}

func newRegion(nBytes int64) (*Region, error) {
	if nBytes <= 0 {
		return nil, fmt.Errorf("atmsim/store: non-positive region size %d", nBytes)
	}
	buf, err := unix.Mmap(-1, 0, int(nBytes), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("atmsim/store: mmap %d bytes: %w", nBytes, err)
	}
	return &Region{buf: buf}, nil
}

func (r *Region) close() error {
	return unix.Munmap(r.buf)
}

func (r *Region) float64Slice(offset int64, n int) []float64 {
	return unsafe.Slice((*float64)(unsafe.Pointer(&r.buf[offset])), n)
}
