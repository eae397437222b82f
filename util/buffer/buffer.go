package buffer

import (
	"errors"
	"fmt"
	"unsafe"
)

var (
	ErrBufferFull      = errors.New("buffer is full")
	ErrSourceExhausted = errors.New("source exhausted")
	ErrInvalidCapacity = errors.New("invalid buffer capacity")
)

// Buffer is a fixed capacity byte buffer with a write cursor (filled) and a
// read cursor (pos) over one contiguous region.
//
//	0 <= pos <= filled <= Cap()
//
// [0, filled) holds written bytes, [pos, filled) is the unread window and
// [filled, Cap()) is never exposed. A Buffer has a single owner; it is not
// safe for concurrent use.
type Buffer struct {
	region  []byte
	storage Storage
	filled  int // filled 是已写入数据的结束位置
	pos     int // pos 是下一个未读字节的位置
}

// New creates a heap backed buffer of the given capacity.
func New(capacity int) *Buffer {
	if capacity < 0 {
		panic(fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity))
	}
	return &Buffer{region: make([]byte, capacity)}
}

// NewIn creates a buffer whose region comes from alloc. The region contents
// are whatever the allocator hands out; they are never read before written.
func NewIn(alloc Allocator, capacity int) (*Buffer, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	s, err := alloc.Allocate(capacity)
	if err != nil {
		return nil, err
	}
	return &Buffer{region: s.Bytes()[:capacity:capacity], storage: s}, nil
}

// NewZeroedIn is NewIn with the region explicitly cleared.
func NewZeroedIn(alloc Allocator, capacity int) (*Buffer, error) {
	b, err := NewIn(alloc, capacity)
	if err != nil {
		return nil, err
	}
	clear(b.region)
	return b, nil
}

// Wrap uses region as backing storage, typically a caller owned array:
//
//	var arr [64]byte
//	b := buffer.Wrap(arr[:])
func Wrap(region []byte) *Buffer {
	return &Buffer{region: region[:len(region):len(region)]}
}

// Release gives the region back to its allocator. The buffer is left empty
// with zero capacity. Calling Release more than once is a no-op.
func (b *Buffer) Release() error {
	s := b.storage
	b.region, b.storage = nil, nil
	b.filled, b.pos = 0, 0
	if s == nil {
		return nil
	}
	return s.Release()
}

// Clear resets both cursors. Storage is not touched.
func (b *Buffer) Clear() {
	b.filled = 0
	b.pos = 0
}

func (b *Buffer) Cap() int {
	return len(b.region)
}

// RemainingSpace is the number of bytes that can still be written.
func (b *Buffer) RemainingSpace() int {
	return len(b.region) - b.filled
}

// Remaining is the number of unread bytes.
func (b *Buffer) Remaining() int {
	return b.filled - b.pos
}

// Len is an alias of Remaining.
func (b *Buffer) Len() int {
	return b.filled - b.pos
}

func (b *Buffer) Pos() int {
	return b.pos
}

func (b *Buffer) FilledPos() int {
	return b.filled
}

// SetPosUnchecked moves the read cursor. The caller guarantees
// 0 <= pos <= FilledPos().
func (b *Buffer) SetPosUnchecked(pos int) {
	if debug {
		assertf(pos >= 0 && pos <= b.filled, "SetPosUnchecked(%d) outside [0, %d]", pos, b.filled)
	}
	b.pos = pos
}

// SetFilledPosUnchecked moves the write cursor. The caller guarantees
// Pos() <= filled <= Cap() and that [0, filled) has been written.
func (b *Buffer) SetFilledPosUnchecked(filled int) {
	if debug {
		assertf(filled >= b.pos && filled <= len(b.region), "SetFilledPosUnchecked(%d) outside [%d, %d]", filled, b.pos, len(b.region))
	}
	b.filled = filled
}

// TryWrite appends p if it fits entirely, otherwise it returns ErrBufferFull
// and leaves the buffer unchanged. Filling up to exactly Cap() succeeds.
func (b *Buffer) TryWrite(p []byte) error {
	end := b.filled + len(p)
	if end > len(b.region) {
		return ErrBufferFull
	}
	copy(b.region[b.filled:end], p)
	b.filled = end
	return nil
}

// WriteUnchecked appends p without a capacity check. The caller must have
// established len(p) <= RemainingSpace(), e.g. through a single
// RemainingSpace call before a series of small writes. Writing past the
// region corrupts memory.
func (b *Buffer) WriteUnchecked(p []byte) {
	if debug {
		assertf(len(p) <= len(b.region)-b.filled, "WriteUnchecked of %d bytes with %d bytes of space", len(p), len(b.region)-b.filled)
	}
	if len(p) == 0 {
		return
	}
	dst := unsafe.Add(unsafe.Pointer(unsafe.SliceData(b.region)), b.filled)
	copy(unsafe.Slice((*byte)(dst), len(p)), p)
	b.filled += len(p)
}

// writeByteUnchecked stores c at the write cursor without a capacity check.
func (b *Buffer) writeByteUnchecked(c byte) {
	if debug {
		assertf(b.filled < len(b.region), "WriteByte on a full buffer")
	}
	*(*byte)(unsafe.Add(unsafe.Pointer(unsafe.SliceData(b.region)), b.filled)) = c
	b.filled++
}

// WriteMany appends all chunks in order, or none of them when their total
// length does not fit.
func (b *Buffer) WriteMany(chunks ...[]byte) error {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if total > len(b.region)-b.filled {
		return ErrBufferFull
	}
	for _, c := range chunks {
		b.filled += copy(b.region[b.filled:], c)
	}
	return nil
}

// WriteFunc hands fn the next n bytes of unfilled space and advances the
// write cursor by the count fn returns, clamped to [0, n]. When n bytes are
// not available fn is not called and ErrBufferFull is returned.
func (b *Buffer) WriteFunc(n int, fn func(window []byte) int) (int, error) {
	if n < 0 || n > len(b.region)-b.filled {
		return 0, ErrBufferFull
	}
	written := fn(b.region[b.filled : b.filled+n : b.filled+n])
	written = max(0, min(written, n))
	b.filled += written
	return written, nil
}

// Next returns up to n unread bytes and consumes them. A request larger than
// Remaining() is truncated; an empty buffer yields an empty slice. The
// returned slice aliases the buffer.
func (b *Buffer) Next(n int) []byte {
	k := b.window(n)
	p := b.region[b.pos : b.pos+k : b.pos+k]
	b.pos += k
	return p
}

// Peek returns the same window as Next without consuming it. The slice
// aliases the buffer and is only valid until the next call that mutates the
// buffer (writes, Clear, Release).
func (b *Buffer) Peek(n int) []byte {
	k := b.window(n)
	return b.region[b.pos : b.pos+k : b.pos+k]
}

// Bytes returns the whole unread window under the same contract as Peek.
func (b *Buffer) Bytes() []byte {
	return b.region[b.pos:b.filled:b.filled]
}

// Advance consumes n bytes, never moving past the filled position.
func (b *Buffer) Advance(n int) {
	if n <= 0 {
		return
	}
	b.pos += min(n, b.filled-b.pos)
}

func (b *Buffer) window(n int) int {
	if n <= 0 {
		return 0
	}
	return min(n, b.filled-b.pos)
}

// String prints the unread bytes as a byte list, e.g. [116 101 115 116].
func (b *Buffer) String() string {
	if b == nil {
		return "<nil>"
	}
	return fmt.Sprint(b.Bytes())
}
