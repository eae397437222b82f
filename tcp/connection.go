package tcp

import (
	"errors"
	"fmt"
	"io"

	"fastbuf/resp"
	"fastbuf/util/buffer"
	"fastbuf/util/log"
)

var ErrFrameTooLarge = errors.New("frame larger than connection buffer")

// Connection frames RESP commands over a byte stream with one fixed size
// read buffer and one fixed size write buffer. It is used by one goroutine.
type Connection struct {
	conn io.ReadWriter
	// readBuffer 保存未解析的字节, spare 用于搬移不完整的帧
	readBuffer  *buffer.Buffer
	spare       *buffer.Buffer
	writeBuffer *buffer.Buffer
	frames      int
}

// NewConnection creates a connection whose buffers are allocated from alloc.
func NewConnection(conn io.ReadWriter, alloc buffer.Allocator, readCap, writeCap int) (*Connection, error) {
	c := &Connection{conn: conn}
	var err error
	if c.readBuffer, err = buffer.NewIn(alloc, readCap); err != nil {
		return nil, fmt.Errorf("allocate read buffer: %w", err)
	}
	if c.spare, err = buffer.NewIn(alloc, readCap); err != nil {
		_ = c.readBuffer.Release()
		return nil, fmt.Errorf("allocate read buffer: %w", err)
	}
	if c.writeBuffer, err = buffer.NewIn(alloc, writeCap); err != nil {
		_ = c.readBuffer.Release()
		_ = c.spare.Release()
		return nil, fmt.Errorf("allocate write buffer: %w", err)
	}
	return c, nil
}

/*
ReadCommand
Decode the next command from the read buffer, filling it from the
connection until a whole frame is available. io.EOF is returned once the
peer has no more data; a partial frame left at that point is
io.ErrUnexpectedEOF.
*/
func (c *Connection) ReadCommand() (*resp.RespCommand, error) {
	for {
		cmd, err := resp.Decode(c.readBuffer)
		if err == nil {
			c.frames++
			if c.readBuffer.Remaining() == 0 {
				c.readBuffer.Clear()
			}
			return cmd, nil
		}
		if !errors.Is(err, resp.ErrIncomplete) {
			return nil, err
		}
		if c.readBuffer.RemainingSpace() == 0 {
			if err := c.carryOver(); err != nil {
				return nil, err
			}
		}
		if _, err := c.readBuffer.FillFrom(c.conn); err != nil {
			if errors.Is(err, buffer.ErrSourceExhausted) {
				if c.readBuffer.Remaining() > 0 {
					return nil, io.ErrUnexpectedEOF
				}
				return nil, io.EOF
			}
			return nil, err
		}
	}
}

// carryOver moves the unread tail of a full read buffer to the start of the
// spare buffer and swaps the two.
func (c *Connection) carryOver() error {
	if c.readBuffer.Pos() == 0 {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, c.readBuffer.Cap())
	}
	c.spare.Clear()
	if err := c.spare.TryWrite(c.readBuffer.Bytes()); err != nil {
		return err
	}
	log.Debug("carry over %d bytes of a partial frame", c.spare.Remaining())
	c.readBuffer.Clear()
	c.readBuffer, c.spare = c.spare, c.readBuffer
	return nil
}

// SendCommand encodes command into the write buffer, flushing the buffer
// first when the frame does not fit. Frames are only sent on Flush or when
// the buffer runs full.
func (c *Connection) SendCommand(command *resp.RespCommand) error {
	err := resp.Encode(c.writeBuffer, command)
	if !errors.Is(err, buffer.ErrBufferFull) {
		return err
	}
	if err := c.Flush(); err != nil {
		return err
	}
	if err := resp.Encode(c.writeBuffer, command); err != nil {
		if errors.Is(err, buffer.ErrBufferFull) {
			return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, resp.EncodedLen(command))
		}
		return err
	}
	return nil
}

// Flush writes all pending bytes to the connection.
func (c *Connection) Flush() error {
	if _, err := c.writeBuffer.WriteTo(c.conn); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	c.writeBuffer.Clear()
	return nil
}

// Buffered is the number of received bytes not yet decoded.
func (c *Connection) Buffered() int {
	return c.readBuffer.Remaining()
}

// Frames is the number of commands decoded so far.
func (c *Connection) Frames() int {
	return c.frames
}

// Close releases the buffers. It does not close the underlying stream.
func (c *Connection) Close() error {
	return errors.Join(c.readBuffer.Release(), c.spare.Release(), c.writeBuffer.Release())
}
