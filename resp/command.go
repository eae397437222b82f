package resp

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CommandTypeSingleLine byte = iota
	CommandTypeBulk
	CommandTypeArray
	CommandTypeNumber
	CommandTypeError
	ReplyTypeNil
	ReplyEmptyList
)

const (
	SingleLinePrefix = '+'
	BulkPrefix       = '$'
	ArrayPrefix      = '*'
	ErrorPrefix      = '-'
	NumberPrefix     = ':'
)

var lineBreaks = strings.NewReplacer("\r", " ", "\n", " ")

var (
	OKCommand        = NewSingleLineCommand([]byte("OK"))
	PongCommand      = NewSingleLineCommand([]byte("PONG"))
	NilCommand       = &RespCommand{commandType: ReplyTypeNil}
	EmptyListCommand = &RespCommand{commandType: ReplyEmptyList}
)

// RespCommand is one RESP value: a request array or a reply.
type RespCommand struct {
	parts       [][]byte
	commandType byte
	err         error
	number      int64
}

func NewCommand(parts [][]byte) *RespCommand {
	return &RespCommand{parts: parts, commandType: CommandTypeArray}
}

func NewStringArrayCommand(array ...string) *RespCommand {
	parts := make([][]byte, len(array))
	for i, a := range array {
		parts[i] = []byte(a)
	}
	return NewCommand(parts)
}

func NewBulkStringCommand(bulk []byte) *RespCommand {
	return &RespCommand{parts: [][]byte{bulk}, commandType: CommandTypeBulk}
}

func NewNumberCommand(number int64) *RespCommand {
	return &RespCommand{number: number, commandType: CommandTypeNumber}
}

func NewSingleLineCommand(message []byte) *RespCommand {
	return &RespCommand{parts: [][]byte{message}, commandType: CommandTypeSingleLine}
}

func NewErrorCommand(err error) *RespCommand {
	return &RespCommand{err: err, commandType: CommandTypeError}
}

// NewErrorf formats an error reply. CR and LF in the message, e.g. from
// echoed client input, become spaces so the reply stays one frame.
func NewErrorf(format string, args ...interface{}) *RespCommand {
	msg := lineBreaks.Replace(fmt.Sprintf(format, args...))
	return NewErrorCommand(errors.New(msg))
}

func NewNilCommand() *RespCommand {
	return &RespCommand{commandType: ReplyTypeNil}
}

func NewEmptyListCommand() *RespCommand {
	return &RespCommand{commandType: ReplyEmptyList}
}

func (c *RespCommand) Type() byte {
	return c.commandType
}

// Parts returns the array elements, or the single payload of a bulk or
// single line value. A nil element is a RESP nil bulk string.
func (c *RespCommand) Parts() [][]byte {
	return c.parts
}

func (c *RespCommand) Len() int {
	return len(c.parts)
}

// Name is the lower-cased first element of a request.
func (c *RespCommand) Name() string {
	if len(c.parts) == 0 {
		return ""
	}
	return strings.ToLower(string(c.parts[0]))
}

func (c *RespCommand) Args() [][]byte {
	if len(c.parts) == 0 {
		return nil
	}
	return c.parts[1:]
}

func (c *RespCommand) Number() int64 {
	return c.number
}

func (c *RespCommand) Err() error {
	if c.commandType != CommandTypeError {
		return nil
	}
	if c.err == nil {
		return errors.New("ERR")
	}
	return c.err
}
