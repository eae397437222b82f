package resp

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"

	"fastbuf/util/buffer"
)

// MaxBulkLen bounds a single bulk string, as in Redis' proto-max-bulk-len.
const MaxBulkLen = 512 * 1024 * 1024

var (
	ErrIncomplete = errors.New("incomplete RESP frame")
	ErrProtocol   = errors.New("protocol error")
)

var (
	crlf                = []byte("\r\n")
	nullBulkStringBytes = []byte("$-1\r\n")
	emptyListBytes      = []byte("*0\r\n")
)

// EncodedLen is the exact number of bytes Encode writes for command.
func EncodedLen(command *RespCommand) int {
	switch command.commandType {
	case CommandTypeNumber:
		return 1 + intLen(command.number) + 2
	case CommandTypeSingleLine:
		return 1 + len(command.parts[0]) + 2
	case CommandTypeError:
		return 1 + len(command.Err().Error()) + 2
	case CommandTypeBulk:
		return bulkLen(command.parts[0])
	case ReplyTypeNil:
		return len(nullBulkStringBytes)
	case ReplyEmptyList:
		return len(emptyListBytes)
	case CommandTypeArray:
		if len(command.parts) == 0 {
			return len(emptyListBytes)
		}
		n := 1 + intLen(int64(len(command.parts))) + 2
		for _, bulk := range command.parts {
			n += bulkLen(bulk)
		}
		return n
	}
	return 0
}

func bulkLen(bulk []byte) int {
	if bulk == nil {
		return len(nullBulkStringBytes)
	}
	return 1 + intLen(int64(len(bulk))) + 2 + len(bulk) + 2
}

func intLen(v int64) int {
	var scratch [20]byte
	return len(strconv.AppendInt(scratch[:0], v, 10))
}

// Encode serializes command into b. The frame is written entirely or not at
// all: when it does not fit, buffer.ErrBufferFull is returned and b is left
// as it was. Space is checked once, the individual pieces then go through
// the unchecked write path. Simple strings and errors holding CR or LF are
// rejected with ErrProtocol.
func Encode(b *buffer.Buffer, command *RespCommand) error {
	if err := checkLine(command); err != nil {
		return err
	}
	if EncodedLen(command) > b.RemainingSpace() {
		return buffer.ErrBufferFull
	}
	var scratch [24]byte
	switch command.commandType {
	case CommandTypeNumber:
		b.WriteUnchecked(header(scratch[:0], NumberPrefix, command.number))
	case CommandTypeSingleLine:
		b.WriteUnchecked([]byte{SingleLinePrefix})
		b.WriteUnchecked(command.parts[0])
		b.WriteUnchecked(crlf)
	case CommandTypeError:
		b.WriteUnchecked([]byte{ErrorPrefix})
		b.WriteUnchecked([]byte(command.Err().Error()))
		b.WriteUnchecked(crlf)
	case CommandTypeBulk:
		writeBulk(b, scratch[:0], command.parts[0])
	case ReplyTypeNil:
		b.WriteUnchecked(nullBulkStringBytes)
	case ReplyEmptyList:
		b.WriteUnchecked(emptyListBytes)
	case CommandTypeArray:
		if len(command.parts) == 0 {
			b.WriteUnchecked(emptyListBytes)
			return nil
		}
		b.WriteUnchecked(header(scratch[:0], ArrayPrefix, int64(len(command.parts))))
		for _, bulk := range command.parts {
			writeBulk(b, scratch[:0], bulk)
		}
	default:
		return fmt.Errorf("resp: unknown command type %d", command.commandType)
	}
	return nil
}

// Marshal encodes command into a new byte slice.
func Marshal(command *RespCommand) ([]byte, error) {
	b := buffer.New(EncodedLen(command))
	if err := Encode(b, command); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// checkLine rejects one-line payloads that would end the frame early.
func checkLine(command *RespCommand) error {
	var line []byte
	switch command.commandType {
	case CommandTypeSingleLine:
		line = command.parts[0]
	case CommandTypeError:
		line = []byte(command.Err().Error())
	default:
		return nil
	}
	if bytes.ContainsAny(line, "\r\n") {
		return fmt.Errorf("%w: CR or LF in %q", ErrProtocol, line)
	}
	return nil
}

// writeBulk writes ${len}\r\n{content}\r\n
func writeBulk(b *buffer.Buffer, scratch []byte, bulk []byte) {
	if bulk == nil {
		b.WriteUnchecked(nullBulkStringBytes)
		return
	}
	b.WriteUnchecked(header(scratch, BulkPrefix, int64(len(bulk))))
	b.WriteUnchecked(bulk)
	b.WriteUnchecked(crlf)
}

func header(dst []byte, prefix byte, n int64) []byte {
	dst = append(dst, prefix)
	dst = strconv.AppendInt(dst, n, 10)
	return append(dst, '\r', '\n')
}

// Decode parses one RESP value from the unread bytes of b. When the bytes
// hold only part of a frame ErrIncomplete is returned and nothing is
// consumed; the caller fills b and tries again. The returned command does
// not reference b's memory.
func Decode(b *buffer.Buffer) (*RespCommand, error) {
	command, n, err := parse(b.Peek(b.Remaining()))
	if err != nil {
		return nil, err
	}
	b.Advance(n)
	return command, nil
}

// Unmarshal decodes exactly one value from data.
func Unmarshal(data []byte) (*RespCommand, error) {
	command, n, err := parse(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrProtocol, len(data)-n)
	}
	return command, nil
}

func parse(data []byte) (*RespCommand, int, error) {
	line, off, err := readLine(data, 0)
	if err != nil {
		return nil, 0, err
	}
	switch line[0] {
	case SingleLinePrefix:
		return NewSingleLineCommand(clone(line[1:])), off, nil
	case ErrorPrefix:
		return NewErrorCommand(errors.New(string(line[1:]))), off, nil
	case NumberPrefix:
		number, err := parseNumber(line)
		if err != nil {
			return nil, 0, err
		}
		return NewNumberCommand(number), off, nil
	case BulkPrefix:
		bulk, next, err := readBulkString(data, off, line)
		if err != nil {
			return nil, 0, err
		}
		if bulk == nil {
			return NewNilCommand(), next, nil
		}
		return NewBulkStringCommand(bulk), next, nil
	case ArrayPrefix:
		size, err := parseNumber(line)
		if err != nil {
			return nil, 0, err
		}
		switch {
		case size == -1:
			return NewNilCommand(), off, nil
		case size == 0:
			return NewEmptyListCommand(), off, nil
		case size < 0 || size > math.MaxInt32:
			return nil, 0, fmt.Errorf("%w: invalid array size %d", ErrProtocol, size)
		case size > int64(len(data)-off)/3:
			// every element takes at least 3 bytes, e.g. "+\r\n"
			return nil, 0, ErrIncomplete
		}
		parts, next, err := readArray(data, off, int(size))
		if err != nil {
			return nil, 0, err
		}
		return NewCommand(parts), next, nil
	}
	return nil, 0, fmt.Errorf("%w: unexpected prefix %q", ErrProtocol, line[0])
}

/*
Read RESP Bulk string
${len}\r\n{content}\r\n
*/
func readBulkString(data []byte, off int, line []byte) ([]byte, int, error) {
	length, err := parseNumber(line)
	if err != nil {
		return nil, 0, err
	}
	// nil bulk string
	if length == -1 {
		return nil, off, nil
	}
	if length < 0 || length > MaxBulkLen {
		return nil, 0, fmt.Errorf("%w: invalid bulk length %d", ErrProtocol, length)
	}
	end := off + int(length)
	if end+2 > len(data) {
		return nil, 0, ErrIncomplete
	}
	if data[end] != '\r' || data[end+1] != '\n' {
		return nil, 0, fmt.Errorf("%w: bulk string not terminated by CRLF", ErrProtocol)
	}
	return clone(data[off:end]), end + 2, nil
}

func readArray(data []byte, off int, size int) ([][]byte, int, error) {
	parts := make([][]byte, size)
	for i := 0; i < size; i++ {
		line, next, err := readLine(data, off)
		if err != nil {
			return nil, 0, err
		}
		switch line[0] {
		case BulkPrefix:
			bulk, after, err := readBulkString(data, next, line)
			if err != nil {
				return nil, 0, err
			}
			parts[i] = bulk
			off = after
		case NumberPrefix, SingleLinePrefix:
			parts[i] = clone(line[1:])
			off = next
		default:
			return nil, 0, fmt.Errorf("%w: unsupported array element %q", ErrProtocol, line[0])
		}
	}
	return parts, off, nil
}

// readLine returns the line starting at off without its CRLF and the offset
// after it.
func readLine(data []byte, off int) ([]byte, int, error) {
	i := bytes.IndexByte(data[off:], '\n')
	if i < 0 {
		return nil, 0, ErrIncomplete
	}
	end := off + i
	if i < 2 || data[end-1] != '\r' {
		return nil, 0, fmt.Errorf("%w: %q", ErrProtocol, data[off:end+1])
	}
	return data[off : end-1], end + 1, nil
}

func parseNumber(line []byte) (int64, error) {
	n, err := strconv.ParseInt(string(line[1:]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid number %q", ErrProtocol, line[1:])
	}
	return n, nil
}

func clone(p []byte) []byte {
	c := make([]byte, len(p))
	copy(c, p)
	return c
}
