//go:build !fastbuf_debug

package buffer

const debug = false

func assertf(cond bool, format string, args ...interface{}) {}
