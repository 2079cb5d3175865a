package chat

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
)

// conn wraps one live TCP socket with line-oriented reads and writes.
// The reader side belongs to exactly one goroutine; the writer side is
// shared (the session's auth response and forwarded broadcasts from other
// sessions target the same socket) and therefore serialized, so concurrent
// writers never interleave mid-line.
type conn struct {
	nc     net.Conn
	reader *bufio.Reader

	writeMu   sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
}

func newConn(nc net.Conn) *conn {
	return &conn{
		nc:     nc,
		reader: bufio.NewReader(nc),
	}
}

// readLine blocks until one newline-terminated line arrives and returns it
// without the line terminator.
func (c *conn) readLine() (string, error) {
	if c.closed.Load() {
		return "", ErrConnClosed
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// writeLine sends one line, appending the terminator. Whole lines only:
// the write lock keeps broadcasts from different goroutines from tearing.
func (c *conn) writeLine(line string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed.Load() {
		return ErrConnClosed
	}

	_, err := c.nc.Write([]byte(line + "\n"))
	return err
}

// close shuts the socket down. Idempotent; a second call returns nil. Closing
// is the only cancellation primitive: it makes the owning goroutine's blocked
// read fail, which ends its receive loop.
func (c *conn) close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.nc.Close()
	})
	return err
}

func (c *conn) remoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}

// isExpectedClose reports whether a read error is the normal end of a
// connection rather than a failure worth logging: end-of-stream, a close on
// our own side, or the peer resetting.
func isExpectedClose(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, ErrConnClosed) ||
		errors.Is(err, syscall.ECONNRESET)
}
