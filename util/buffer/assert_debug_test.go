//go:build fastbuf_debug

package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebug_UncheckedPreconditions(t *testing.T) {
	buf := New(4)
	assert.Panics(t, func() { buf.WriteUnchecked([]byte("12345")) })
	assert.Equal(t, 0, buf.FilledPos())

	buf.WriteUnchecked([]byte("1234"))
	assert.Panics(t, func() { buf.writeByteUnchecked('5') })
	assert.Panics(t, func() { buf.SetPosUnchecked(5) })
	assert.Panics(t, func() { buf.SetFilledPosUnchecked(5) })
	buf.SetPosUnchecked(2)
	assert.Panics(t, func() { buf.SetFilledPosUnchecked(1) })
	assert.NotPanics(t, func() { buf.SetFilledPosUnchecked(2) })
}
