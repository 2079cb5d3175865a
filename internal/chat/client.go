package chat

import (
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"

	"tcpchat/internal/logger"
	"tcpchat/pkg/wire"
)

// placeholderName is carried by an accepted connection until the handshake
// supplies the real name.
const placeholderName = "Unknown"

// Client is one end of a conversation over a single TCP connection. It is
// used in two roles: locally, when the user connects to a server, and inside
// a Server as the handle for an accepted socket. Identity is the underlying
// connection; two clients with equal names over distinct sockets are
// distinct.
type Client struct {
	// id correlates log lines of one connection; it never goes on the wire.
	id string

	mu   sync.Mutex
	name string

	conn    *conn
	display DisplayFunc
}

// NewClient wraps an established socket. The name is a placeholder until the
// handshake completes when the socket came from a server's accept loop.
func NewClient(name string, nc net.Conn, display DisplayFunc) *Client {
	return &Client{
		id:      uuid.NewString(),
		name:    name,
		conn:    newConn(nc),
		display: display,
	}
}

// Name returns the current display name. Mutable only during the handshake.
func (c *Client) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *Client) setName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// Send transmits user-typed text as "name:text". Empty text is rejected
// without any I/O.
func (c *Client) Send(text string) bool {
	if text == "" {
		return false
	}
	c.sendRaw(wire.ChatMessage(c.Name(), text))
	return true
}

// sendRaw writes one protocol line verbatim. Used for handshake lines and
// for forwarding received lines without re-framing.
func (c *Client) sendRaw(line string) {
	if err := c.conn.writeLine(line); err != nil && !isExpectedClose(err) {
		logger.Warnf("client %s: write failed: %v", c.id, err)
	}
}

// Close shuts the connection down. Idempotent.
func (c *Client) Close() error {
	return c.conn.close()
}

// Authenticate performs the connecting side of the handshake on its own
// goroutine: it sends name and password and waits for exactly one response
// line. A failed read means the server rejected the password (it closes the
// socket without answering). On success the client enters its receive loop
// until the server side goes away. onDisconnect runs after teardown in every
// case.
func (c *Client) Authenticate(password string, onDisconnect func()) {
	go func() {
		c.sendRaw(wire.AuthRequest(c.Name(), password))

		line, err := c.conn.readLine()
		if err != nil {
			c.display("Error: Password was wrong!")
		} else {
			serverName, clientNames := wire.ParseAuthResponse(line)
			c.display(fmt.Sprintf("Connection to %q was established.", serverName))
			c.display("You are now connected with: " + formatNames(serverName, clientNames))

			c.listen(nil)

			c.display(fmt.Sprintf("Connection to %q was closed.", serverName))
		}

		c.Close()
		if onDisconnect != nil {
			onDisconnect()
		}
	}()
}

// checkAuthentication performs the accepting side of the handshake. It reads
// the client's "name:password" line and reports whether the password matches;
// an empty server password accepts anything. The supplied name is taken over
// as a side effect before the comparison, so a rejected client still carries
// the name it presented. Read failures fail the handshake; no error escapes.
func (c *Client) checkAuthentication(serverPassword string) bool {
	line, err := c.conn.readLine()
	if err != nil {
		return false
	}

	name, password := wire.ParseAuthRequest(line)
	c.setName(name)

	return serverPassword == "" || serverPassword == password
}

// listen is the receive loop. It blocks until the underlying read fails or
// hits end-of-stream, classifying every received line: join and leave
// notices are displayed and never forwarded; chat lines are displayed and,
// when peers is non-nil (the server's live set while serving one of its
// accepted clients), forwarded verbatim to every peer except this client.
// The line already names its original author, so forwarding never re-frames.
func (c *Client) listen(peers *roster) {
	for {
		line, err := c.conn.readLine()
		if err != nil {
			if !isExpectedClose(err) {
				logger.Errorf("client %s: read failed: %v", c.id, err)
			}
			return
		}

		switch wire.Classify(line) {
		case wire.KindLeave:
			c.display(fmt.Sprintf("%q has left the conversation.", wire.LeftName(line)))
		case wire.KindJoin:
			c.display(fmt.Sprintf("%q has joined the conversation.", wire.JoinedName(line)))
		default:
			if sender, text, ok := wire.SplitChat(line); ok {
				c.display(sender + ": " + text)
			} else {
				c.display(line)
			}
			if peers != nil {
				peers.forward(c, line)
			}
		}
	}
}

// formatNames renders the peer list of a fresh connection, server first.
func formatNames(serverName string, clientNames []string) string {
	names := append([]string{serverName}, clientNames...)
	return "[" + strings.Join(names, ", ") + "]"
}
