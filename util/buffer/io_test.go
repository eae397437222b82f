package buffer

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_FillFrom(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, newBuf func(int) *Buffer) {
		buf := newBuf(8)
		src := strings.NewReader("hello world")

		n, err := buf.FillFrom(src)
		require.NoError(t, err)
		assert.Equal(t, 8, n, "requests exactly the remaining space")
		assert.Equal(t, "hello wo", string(buf.Bytes()))

		_, err = buf.FillFrom(src)
		assert.ErrorIs(t, err, ErrBufferFull)

		buf.Clear()
		n, err = buf.FillFrom(src)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, "rld", string(buf.Bytes()))

		n, err = buf.FillFrom(src)
		assert.ErrorIs(t, err, ErrSourceExhausted)
		assert.Equal(t, 0, n)
		assert.Equal(t, 3, buf.FilledPos())
	})
}

func TestBuffer_FillFromErrors(t *testing.T) {
	transport := errors.New("connection reset")
	testCases := []struct {
		name      string
		src       io.Reader
		n         int
		exhausted bool
		cause     error
	}{
		{name: "eof", src: strings.NewReader(""), exhausted: true},
		{name: "empty-read", src: emptyReader{}, exhausted: true},
		{name: "data-with-eof", src: iotest.DataErrReader(strings.NewReader("ab")), n: 2},
		{name: "transport-error", src: iotest.ErrReader(transport), cause: transport},
		{name: "data-then-transport-error", src: &partialReader{data: []byte("xyz"), err: transport}, n: 3, cause: transport},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := New(16)
			n, err := buf.FillFrom(tc.src)
			assert.Equal(t, tc.n, n)
			assert.Equal(t, tc.n, buf.FilledPos())
			switch {
			case tc.exhausted:
				assert.ErrorIs(t, err, ErrSourceExhausted)
			case tc.cause != nil:
				assert.ErrorIs(t, err, tc.cause)
				assert.NotErrorIs(t, err, ErrSourceExhausted)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuffer_WriteConformance(t *testing.T) {
	buf := New(8)
	n, err := buf.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = buf.Write([]byte("defghi"))
	assert.ErrorIs(t, err, ErrBufferFull)
	assert.Equal(t, 0, n)

	n, err = buf.WriteString("def")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, err = buf.WriteString("ghi")
	assert.ErrorIs(t, err, ErrBufferFull)

	require.NoError(t, buf.WriteByte('g'))
	require.NoError(t, buf.WriteByte('h'))
	assert.ErrorIs(t, buf.WriteByte('i'), ErrBufferFull)
	assert.Equal(t, "abcdefgh", string(buf.Bytes()))

	// fmt and io helpers see an io.Writer that refuses partial writes
	buf.Clear()
	_, err = io.Copy(buf, strings.NewReader("0123456789"))
	assert.ErrorIs(t, err, ErrBufferFull)
	assert.Equal(t, 0, buf.FilledPos())
}

func TestBuffer_ReadConformance(t *testing.T) {
	buf := New(16)
	require.NoError(t, buf.TryWrite([]byte("hello")))

	p := make([]byte, 3)
	n, err := buf.Read(p)
	require.NoError(t, err)
	assert.Equal(t, "hel", string(p[:n]))

	c, err := buf.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('l'), c)

	n, err = buf.Read(p)
	require.NoError(t, err)
	assert.Equal(t, "o", string(p[:n]))

	n, err = buf.Read(p)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 0, n)
	_, err = buf.ReadByte()
	assert.Equal(t, io.EOF, err)

	n, err = buf.Read(nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)

	buf.Clear()
	require.NoError(t, buf.TryWrite([]byte("abcdef")))
	require.NoError(t, iotest.TestReader(buf, []byte("abcdef")))
}

func TestBuffer_WriteTo(t *testing.T) {
	buf := New(16)
	require.NoError(t, buf.TryWrite([]byte("hello world")))
	buf.Advance(6)

	var sink bytes.Buffer
	n, err := buf.WriteTo(&sink)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, "world", sink.String())
	assert.Equal(t, 0, buf.Remaining())

	n, err = buf.WriteTo(&sink)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)

	buf.Clear()
	require.NoError(t, buf.TryWrite([]byte("abcdef")))
	n, err = buf.WriteTo(&limitedWriter{limit: 4})
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, "ef", string(buf.Bytes()), "only accepted bytes are consumed")
}

func TestBuffer_CopyThrough(t *testing.T) {
	src := strings.NewReader(strings.Repeat("0123456789", 100))
	var dst bytes.Buffer
	buf := New(64)
	for {
		_, err := buf.FillFrom(src)
		if errors.Is(err, ErrSourceExhausted) {
			break
		}
		require.NoError(t, err)
		_, err = buf.WriteTo(&dst)
		require.NoError(t, err)
		buf.Clear()
	}
	assert.Equal(t, strings.Repeat("0123456789", 100), dst.String())
}

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) {
	return 0, nil
}

type partialReader struct {
	data []byte
	err  error
}

func (r *partialReader) Read(p []byte) (int, error) {
	return copy(p, r.data), r.err
}

type limitedWriter struct {
	limit int
	bytes.Buffer
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if len(p) > w.limit {
		p = p[:w.limit]
	}
	w.limit -= len(p)
	return w.Buffer.Write(p)
}
