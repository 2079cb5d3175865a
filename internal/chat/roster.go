package chat

import "sync"

// roster is the server's live set: the ordered collection of authenticated,
// connected clients. Membership changes only on the session goroutine owning
// the affected client, but every other session reads the roster while
// fanning out, so all access goes through the mutex. Fan-out iterates over a
// snapshot taken under the lock; the actual writes happen outside it because
// each connection serializes its own writers.
type roster struct {
	mu      sync.Mutex
	clients []*Client
}

func newRoster() *roster {
	return &roster{}
}

// add appends a freshly authenticated client, preserving join order.
func (r *roster) add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients = append(r.clients, c)
}

// remove deletes a client by connection identity, not by name.
func (r *roster) remove(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, member := range r.clients {
		if member == c {
			r.clients = append(r.clients[:i], r.clients[i+1:]...)
			return
		}
	}
}

func (r *roster) empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients) == 0
}

// names returns the display names of all live clients in join order.
func (r *roster) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.clients))
	for i, member := range r.clients {
		names[i] = member.Name()
	}
	return names
}

func (r *roster) snapshot() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Client(nil), r.clients...)
}

// broadcast sends one line to every live client.
func (r *roster) broadcast(line string) {
	for _, member := range r.snapshot() {
		member.sendRaw(line)
	}
}

// forward relays a received line to every live client except its origin.
func (r *roster) forward(from *Client, line string) {
	for _, member := range r.snapshot() {
		if member != from {
			member.sendRaw(line)
		}
	}
}

// closeAll force-disconnects every live client.
func (r *roster) closeAll() {
	for _, member := range r.snapshot() {
		member.Close()
	}
}
