//go:build fastbuf_debug

package buffer

import "fmt"

// debug enables precondition checks on the unchecked paths.
// Build with -tags fastbuf_debug.
const debug = true

func assertf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Errorf("buffer: "+format, args...))
	}
}
