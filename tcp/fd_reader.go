//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package tcp

import (
	"errors"
	"io"

	"golang.org/x/sys/unix"
)

var _ io.Reader = FdReader(0)

// FdReader reads straight from a file descriptor, e.g. a non-blocking socket
// taken from an epoll loop. EAGAIN is reported as an empty read so that
// Buffer.FillFrom sees "nothing to read right now" instead of an error.
type FdReader int

func (fd FdReader) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(int(fd), p)
		switch {
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, nil
		default:
			return 0, err
		}
	}
}
