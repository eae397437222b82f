//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package buffer

// Mmap falls back to heap allocation where anonymous mappings are not
// available.
type Mmap struct{}

func (Mmap) Allocate(capacity int) (Storage, error) {
	return Heap{}.Allocate(capacity)
}
