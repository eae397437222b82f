//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package buffer

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Mmap allocates regions from anonymous private mappings outside the Go
// heap. The kernel hands out zeroed pages and the garbage collector never
// scans or moves them. Release unmaps the region.
type Mmap struct{}

func (Mmap) Allocate(capacity int) (Storage, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	// mmap rejects zero length mappings
	if capacity == 0 {
		return heapStorage(nil), nil
	}
	data, err := unix.Mmap(-1, 0, capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("buffer: mmap %d bytes: %w", capacity, err)
	}
	return &mmapStorage{data: data}, nil
}

type mmapStorage struct {
	data []byte
}

func (s *mmapStorage) Bytes() []byte {
	return s.data
}

func (s *mmapStorage) Release() error {
	if s.data == nil {
		return nil
	}
	data := s.data
	s.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("buffer: munmap: %w", err)
	}
	return nil
}
