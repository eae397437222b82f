package buffer

import (
	"errors"
	"fmt"
	"io"
)

var (
	_ io.Writer       = (*Buffer)(nil)
	_ io.ByteWriter   = (*Buffer)(nil)
	_ io.StringWriter = (*Buffer)(nil)
	_ io.Reader       = (*Buffer)(nil)
	_ io.ByteReader   = (*Buffer)(nil)
	_ io.WriterTo     = (*Buffer)(nil)
	_ fmt.Stringer    = (*Buffer)(nil)
)

// Write implements io.Writer on top of TryWrite: p is stored entirely or not
// at all.
func (b *Buffer) Write(p []byte) (int, error) {
	if err := b.TryWrite(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (b *Buffer) WriteByte(c byte) error {
	if b.filled == len(b.region) {
		return ErrBufferFull
	}
	b.writeByteUnchecked(c)
	return nil
}

func (b *Buffer) WriteString(s string) (int, error) {
	end := b.filled + len(s)
	if end > len(b.region) {
		return 0, ErrBufferFull
	}
	copy(b.region[b.filled:end], s)
	b.filled = end
	return len(s), nil
}

// Read copies unread bytes into p and consumes them.
func (b *Buffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.pos == b.filled {
		return 0, io.EOF
	}
	n := copy(p, b.region[b.pos:b.filled])
	b.pos += n
	return n, nil
}

func (b *Buffer) ReadByte() (byte, error) {
	if b.pos == b.filled {
		return 0, io.EOF
	}
	c := b.region[b.pos]
	b.pos++
	return c, nil
}

// WriteTo drains the unread window into w. Only the bytes w accepted are
// consumed.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	if b.pos == b.filled {
		return 0, nil
	}
	n, err := w.Write(b.region[b.pos:b.filled])
	if n < 0 || n > b.filled-b.pos {
		panic("buffer: invalid Write count")
	}
	b.pos += n
	if err != nil {
		return int64(n), err
	}
	if b.pos != b.filled {
		return int64(n), io.ErrShortWrite
	}
	return int64(n), nil
}

// FillFrom reads once from r into the unfilled space and advances the filled
// position by the count read.
//
// It returns ErrBufferFull without calling r when there is no space left,
// and ErrSourceExhausted when r produced no bytes (io.EOF or an empty read).
// Other errors from r are wrapped; bytes read alongside an error are kept.
func (b *Buffer) FillFrom(r io.Reader) (int, error) {
	if b.filled == len(b.region) {
		return 0, ErrBufferFull
	}
	n, err := r.Read(b.region[b.filled:])
	if n < 0 || n > len(b.region)-b.filled {
		panic("buffer: invalid Read count")
	}
	b.filled += n
	switch {
	case err == nil || errors.Is(err, io.EOF):
		if n == 0 {
			return 0, ErrSourceExhausted
		}
		return n, nil
	default:
		return n, fmt.Errorf("buffer: fill from source: %w", err)
	}
}
