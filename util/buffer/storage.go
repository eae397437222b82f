package buffer

import (
	"errors"
	"fmt"

	"fastbuf/util/pool"
)

var ErrPoolExhausted = errors.New("slab pool exhausted")

// Storage is a fixed size region owned by one Buffer.
type Storage interface {
	// Bytes returns the region, readable and writable, with len == capacity.
	Bytes() []byte
	// Release hands the region back to where it came from.
	Release() error
}

// Allocator creates storage of an exact capacity.
type Allocator interface {
	Allocate(capacity int) (Storage, error)
}

// Heap allocates regions with make. The Go runtime zeroes them.
type Heap struct{}

func (Heap) Allocate(capacity int) (Storage, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return heapStorage(make([]byte, capacity)), nil
}

type heapStorage []byte

func (s heapStorage) Bytes() []byte {
	return s
}

func (s heapStorage) Release() error {
	return nil
}

// SlabPool hands out fixed size slabs from a bounded pool. Slabs are reused
// as they are, without zeroing, so a new buffer's region holds whatever the
// previous owner left behind.
type SlabPool struct {
	slabSize int
	slabs    *pool.Pool[[]byte]
}

// NewSlabPool creates a pool of at most maxSlabs slabs of slabSize bytes.
// Slabs are created lazily.
func NewSlabPool(slabSize, maxSlabs int) *SlabPool {
	if slabSize < 0 {
		panic(fmt.Errorf("%w: slab size %d", ErrInvalidCapacity, slabSize))
	}
	return &SlabPool{
		slabSize: slabSize,
		slabs: pool.Empty(maxSlabs, func() []byte {
			return make([]byte, slabSize)
		}),
	}
}

func (p *SlabPool) SlabSize() int {
	return p.slabSize
}

// MaxSlabs is the most slabs the pool will ever create.
func (p *SlabPool) MaxSlabs() int {
	return p.slabs.Cap()
}

// Created is the number of slabs created so far, in use or idle.
func (p *SlabPool) Created() int {
	return p.slabs.Size()
}

// Idle is the number of slabs currently waiting in the pool.
func (p *SlabPool) Idle() int {
	return p.slabs.Idle()
}

// Allocate takes a slab and exposes its first capacity bytes. It does not
// block: when every slab is in use it returns ErrPoolExhausted.
func (p *SlabPool) Allocate(capacity int) (Storage, error) {
	if capacity < 0 || capacity > p.slabSize {
		return nil, fmt.Errorf("%w: %d (slab size %d)", ErrInvalidCapacity, capacity, p.slabSize)
	}
	slab, ok := p.slabs.TryGet()
	if !ok {
		if slab, ok = p.slabs.TryNew(); !ok {
			return nil, ErrPoolExhausted
		}
	}
	return &slabStorage{owner: p, slab: slab, n: capacity}, nil
}

type slabStorage struct {
	owner *SlabPool
	slab  []byte
	n     int
}

func (s *slabStorage) Bytes() []byte {
	return s.slab[:s.n:s.n]
}

func (s *slabStorage) Release() error {
	if s.slab == nil {
		return nil
	}
	s.owner.slabs.Put(s.slab)
	s.slab = nil
	return nil
}
