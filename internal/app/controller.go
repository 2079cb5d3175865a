// Package app owns the active communication partner on behalf of a
// frontend. It validates user input before any socket is touched and turns
// every failure into a one-line display message; the frontend never deals
// with errors directly.
package app

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"

	"tcpchat/internal/chat"
	"tcpchat/internal/logger"
	"tcpchat/pkg/wire"
)

// Controller mediates between a frontend and the chat core. At most one
// partner (client or server) is active at a time.
type Controller struct {
	mu      sync.Mutex
	partner chat.Partner
	display chat.DisplayFunc
}

// NewController creates a controller reporting through the given display
// callback.
func NewController(display chat.DisplayFunc) *Controller {
	return &Controller{display: display}
}

// Connect validates the input, dials the server and starts the
// authentication handshake. All failures are reported to the display; no
// partial state is left behind.
func (c *Controller) Connect(name, password, host, port string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.partner.(type) {
	case *chat.Client:
		c.display("Error: Already connected to another server!")
		return
	case *chat.Server:
		c.display("Error: Currently hosting server!")
		return
	}

	portNum, ok := c.validate(name, port)
	if !ok {
		return
	}

	nc, err := net.Dial("tcp", fmt.Sprintf("%s:%d", host, portNum))
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			c.display("Error: Connection refused!")
		} else {
			c.display("Error: Connection setup failed!")
			logger.Errorf("dial %s:%d failed: %v", host, portNum, err)
		}
		return
	}

	client := chat.NewClient(name, nc, c.display)
	c.partner = client
	client.Authenticate(password, func() { c.clear(client) })
}

// Host validates the input and starts a server on the given port.
func (c *Controller) Host(name, password, port string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.partner.(type) {
	case *chat.Client:
		c.display("Error: Currently connected to another server!")
		return
	case *chat.Server:
		c.display("Error: Already hosting server!")
		return
	}

	portNum, ok := c.validate(name, port)
	if !ok {
		return
	}

	server, err := chat.NewServer(name, password, portNum, c.display)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			c.display("Error: Port already in use!")
		} else {
			c.display("Error: Connection setup failed!")
			logger.Errorf("hosting on port %d failed: %v", portNum, err)
		}
		return
	}

	if err := server.Start(); err != nil {
		server.Close()
		c.display("Error: Connection setup failed!")
		return
	}

	c.partner = server
	c.display(fmt.Sprintf("Server was started at port %d.", portNum))
}

// SendInput processes user-typed text. Sent messages are echoed locally with
// the sender's own name; the relay never loops a message back to its author.
func (c *Controller) SendInput(text string) {
	c.mu.Lock()
	partner := c.partner
	c.mu.Unlock()

	if partner != nil && partner.Send(text) {
		c.display(partner.Name() + ": " + text)
	} else if text != "" {
		c.display("Error: No connection to send the message!")
	}
}

// CloseConnection tears down the active partner, if any.
func (c *Controller) CloseConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.partner == nil {
		c.display("Error: No connection to close!")
		return
	}
	c.partner.Close()
	c.partner = nil
}

// Active reports whether a partner currently exists.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.partner != nil
}

// validate rejects a delimiter-carrying name or a bad port before any
// connection attempt. Reported via the display, mutex held by the caller.
func (c *Controller) validate(name, port string) (int, bool) {
	if !wire.IsValidName(name) {
		c.display(fmt.Sprintf("Error: Name must not contain %q!", wire.Delimiter))
		return 0, false
	}

	portNum, err := wire.ParsePort(port)
	if err != nil {
		if errors.Is(err, wire.ErrPortOutOfRange) {
			c.display("Error: Port value out of range!")
		} else {
			c.display("Error: Port was malformed!")
		}
		return 0, false
	}
	return portNum, true
}

// clear resets the active partner after a client-side disconnect, but only
// if it still is the one that disconnected.
func (c *Controller) clear(p chat.Partner) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.partner == p {
		c.partner = nil
	}
}
