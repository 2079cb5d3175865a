package chat

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tcpchat/pkg/wire"
)

// recorder captures display callback output; the callback may fire from any
// session goroutine.
type recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *recorder) display(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, text)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func (r *recorder) waitFor(t *testing.T, substr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, line := range r.snapshot() {
			if strings.Contains(line, substr) {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("display never showed %q; got %v", substr, r.snapshot())
}

func (r *recorder) contains(substr string) bool {
	for _, line := range r.snapshot() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// testPeer is a raw protocol participant speaking the wire format directly,
// so tests can assert exact bytes.
type testPeer struct {
	nc net.Conn
	r  *bufio.Reader
}

func startServer(t *testing.T, name, password string) (*Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv, err := NewServer(name, password, 0, rec.display)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		srv.Close()
		srv.Wait()
	})
	return srv, rec
}

func dialPeer(t *testing.T, srv *Server) *testPeer {
	t.Helper()
	nc, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { nc.Close() })
	return &testPeer{nc: nc, r: bufio.NewReader(nc)}
}

// join performs the handshake and returns once the server has added the peer
// to its live set, keyed off the server-side display.
func join(t *testing.T, srv *Server, rec *recorder, name, password string) *testPeer {
	t.Helper()
	p := dialPeer(t, srv)
	p.sendLine(t, wire.AuthRequest(name, password))
	p.readLine(t) // auth response
	rec.waitFor(t, fmt.Sprintf("%q has joined", name))
	return p
}

func (p *testPeer) sendLine(t *testing.T, line string) {
	t.Helper()
	_, err := p.nc.Write([]byte(line + "\n"))
	require.NoError(t, err)
}

func (p *testPeer) readLine(t *testing.T) string {
	t.Helper()
	require.NoError(t, p.nc.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := p.r.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimSuffix(line, "\n")
}

// expectSilence asserts that no line arrives within the grace period.
func (p *testPeer) expectSilence(t *testing.T) {
	t.Helper()
	require.NoError(t, p.nc.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	line, err := p.r.ReadString('\n')
	if err == nil {
		t.Fatalf("expected no traffic, received %q", line)
	}
	netErr, ok := err.(net.Error)
	require.True(t, ok && netErr.Timeout(), "expected read timeout, got %v", err)
}

func TestHandshakeListsClientsInJoinOrder(t *testing.T) {
	srv, rec := startServer(t, "Server", "p1")

	join(t, srv, rec, "Alice", "p1")
	join(t, srv, rec, "Bob", "p1")

	carol := dialPeer(t, srv)
	carol.sendLine(t, wire.AuthRequest("Carol", "p1"))
	assert.Equal(t, "Server:Alice:Bob", carol.readLine(t))
}

func TestOpenServerAcceptsAnyPassword(t *testing.T) {
	srv, rec := startServer(t, "Server", "")

	for i, password := range []string{"", "whatever", "p2"} {
		name := fmt.Sprintf("guest%d", i)
		p := dialPeer(t, srv)
		p.sendLine(t, wire.AuthRequest(name, password))
		response := p.readLine(t)
		assert.True(t, strings.HasPrefix(response, "Server"), "response %q", response)
		rec.waitFor(t, fmt.Sprintf("%q has joined", name))
	}
}

func TestWrongPasswordRejected(t *testing.T) {
	srv, rec := startServer(t, "Server", "p1")

	alice := join(t, srv, rec, "Alice", "p1")

	eve := dialPeer(t, srv)
	eve.sendLine(t, wire.AuthRequest("Eve", "p2"))

	// The rejected socket is closed without a response line.
	require.NoError(t, eve.nc.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := eve.r.ReadString('\n')
	require.Error(t, err)

	rec.waitFor(t, `"Eve" entered a wrong password.`)

	// A leave notice for the rejected client still reaches the live set,
	// and no join notice ever did.
	assert.Equal(t, wire.LeaveNotice("Eve"), alice.readLine(t))
	assert.False(t, rec.contains(`"Eve" has joined`))
}

func TestJoinAndLeaveNotices(t *testing.T) {
	srv, rec := startServer(t, "Server", "")

	alice := join(t, srv, rec, "Alice", "")

	bob := join(t, srv, rec, "Bob", "")
	assert.Equal(t, wire.JoinNotice("Bob"), alice.readLine(t))

	bob.nc.Close()
	rec.waitFor(t, `"Bob" has left the conversation.`)
	assert.Equal(t, wire.LeaveNotice("Bob"), alice.readLine(t))
}

func TestFanOutExcludesSender(t *testing.T) {
	srv, rec := startServer(t, "Server", "")

	alice := join(t, srv, rec, "Alice", "")
	bob := join(t, srv, rec, "Bob", "")
	carol := join(t, srv, rec, "Carol", "")

	// Drain Bob's and Carol's pending join notices.
	alice.readLine(t) // Bob joined
	alice.readLine(t) // Carol joined
	bob.readLine(t) // Carol joined

	alice.sendLine(t, wire.ChatMessage("Alice", "hello"))

	assert.Equal(t, "Alice:hello", bob.readLine(t))
	assert.Equal(t, "Alice:hello", carol.readLine(t))
	alice.expectSilence(t)
}

func TestForwardedLineKeepsExtraDelimiters(t *testing.T) {
	srv, rec := startServer(t, "Server", "")

	alice := join(t, srv, rec, "Alice", "")
	bob := join(t, srv, rec, "Bob", "")
	alice.readLine(t) // Bob joined

	alice.sendLine(t, "Alice:see http://example.com:8080")
	assert.Equal(t, "Alice:see http://example.com:8080", bob.readLine(t))
}

func TestServerSend(t *testing.T) {
	srv, rec := startServer(t, "Server", "")

	// No clients yet: nothing to send to.
	assert.False(t, srv.Send("hello"))

	alice := join(t, srv, rec, "Alice", "")

	assert.False(t, srv.Send(""))
	alice.expectSilence(t)

	assert.True(t, srv.Send("welcome"))
	assert.Equal(t, "Server:welcome", alice.readLine(t))
}

func TestClientSendEmptyIsNoOp(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()
	client := NewClient("Alice", local, func(string) {})
	defer client.Close()

	assert.False(t, client.Send(""))

	// The peer side must see no bytes at all.
	require.NoError(t, remote.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	buf := make([]byte, 1)
	_, err := remote.Read(buf)
	require.Error(t, err)

	assert.True(t, client.Send("hi"))
}

func TestClientAuthenticateSuccess(t *testing.T) {
	srv, srvRec := startServer(t, "Server", "p1")
	join(t, srv, srvRec, "Alice", "p1")

	nc, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)

	rec := &recorder{}
	disconnected := make(chan struct{})
	client := NewClient("Bob", nc, rec.display)
	client.Authenticate("p1", func() { close(disconnected) })

	rec.waitFor(t, `Connection to "Server" was established.`)
	rec.waitFor(t, "You are now connected with: [Server, Alice]")

	// Chat and notices flow through the client's receive loop.
	srvRec.waitFor(t, `"Bob" has joined`)
	require.True(t, srv.Send("hello"))
	rec.waitFor(t, "Server: hello")

	srv.Close()
	rec.waitFor(t, `Connection to "Server" was closed.`)

	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect callback never ran")
	}
}

func TestClientAuthenticateRejected(t *testing.T) {
	srv, _ := startServer(t, "Server", "p1")

	nc, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)

	rec := &recorder{}
	disconnected := make(chan struct{})
	client := NewClient("Eve", nc, rec.display)
	client.Authenticate("p2", func() { close(disconnected) })

	rec.waitFor(t, "Error: Password was wrong!")

	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect callback never ran")
	}
	assert.False(t, rec.contains("was established"))
}

func TestClientObservesJoinAndLeave(t *testing.T) {
	srv, srvRec := startServer(t, "Server", "")

	nc, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)

	rec := &recorder{}
	client := NewClient("Alice", nc, rec.display)
	client.Authenticate("", nil)
	defer client.Close()
	srvRec.waitFor(t, `"Alice" has joined`)

	bob := join(t, srv, srvRec, "Bob", "")
	rec.waitFor(t, `"Bob" has joined the conversation.`)

	bob.nc.Close()
	rec.waitFor(t, `"Bob" has left the conversation.`)
}

func TestServerCloseIdempotent(t *testing.T) {
	srv, rec := startServer(t, "Server", "")
	join(t, srv, rec, "Alice", "")

	require.NoError(t, srv.Close())
	assert.NoError(t, srv.Close())
	srv.Wait()
}

// Concurrent senders: every message reaches every other live client exactly
// once and the sender never sees its own message. Run with -race.
func TestConcurrentFanOut(t *testing.T) {
	const senders = 3
	const receivers = 2
	const messagesPerSender = 20

	srv, rec := startServer(t, "Server", "")

	peers := make([]*testPeer, 0, senders+receivers)
	for i := 0; i < senders+receivers; i++ {
		peers = append(peers, join(t, srv, rec, fmt.Sprintf("peer%d", i), ""))
	}

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := peers[i]
			name := fmt.Sprintf("peer%d", i)
			for j := 0; j < messagesPerSender; j++ {
				if _, err := p.nc.Write([]byte(wire.ChatMessage(name, fmt.Sprintf("msg-%d", j)) + "\n")); err != nil {
					t.Errorf("sender %d: write failed: %v", i, err)
					return
				}
			}
		}(i)
	}

	// Every peer drains its socket: join notices are skipped, chat lines
	// counted. Peer i must see every message except its own.
	results := make([]map[string]int, len(peers))
	var readWg sync.WaitGroup
	for i, p := range peers {
		readWg.Add(1)
		go func(i int, p *testPeer) {
			defer readWg.Done()
			expected := senders * messagesPerSender
			if i < senders {
				expected = (senders - 1) * messagesPerSender
			}
			counts := make(map[string]int)
			p.nc.SetReadDeadline(time.Now().Add(5 * time.Second))
			for got := 0; got < expected; {
				line, err := p.r.ReadString('\n')
				if err != nil {
					t.Errorf("peer %d: read failed after %d messages: %v", i, got, err)
					return
				}
				line = strings.TrimSuffix(line, "\n")
				if wire.Classify(line) != wire.KindChat {
					continue
				}
				counts[line]++
				got++
			}
			results[i] = counts
		}(i, p)
	}

	wg.Wait()
	readWg.Wait()

	own := func(i int) string { return fmt.Sprintf("peer%d:", i) }
	for i, counts := range results {
		if counts == nil {
			continue
		}
		for line, n := range counts {
			assert.Equal(t, 1, n, "peer %d received %q %d times", i, line, n)
			assert.False(t, strings.HasPrefix(line, own(i)), "peer %d received its own message %q", i, line)
		}
	}
}
