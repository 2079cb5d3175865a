// Package chat implements the connection, authentication and relay protocol
// of the tcpchat system: a Server accepts any number of Clients over TCP and
// rebroadcasts each received chat line to every other connected client.
package chat

// DisplayFunc receives one line of human-readable text whenever the core has
// something to show the user. It may be invoked from any goroutine; the
// frontend is responsible for marshalling onto its own rendering context.
type DisplayFunc func(text string)

// Partner is the capability shared by both roles of a conversation. A Client
// talks to exactly one server; a Server fans out to its connected clients.
type Partner interface {
	// Name returns the display name used on the wire.
	Name() string
	// Send transmits user-typed text, prefixed with the partner's own name.
	// It reports false, without any I/O, for empty text (and, for a server,
	// when nobody is connected).
	Send(text string) bool
	// Close tears down all owned connections. Idempotent.
	Close() error
}

var (
	_ Partner = (*Client)(nil)
	_ Partner = (*Server)(nil)
)
