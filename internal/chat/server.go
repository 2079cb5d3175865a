package chat

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"tcpchat/internal/logger"
	"tcpchat/pkg/wire"
)

// Server owns the listening socket and the live set of authenticated
// clients. It relays chat lines between clients and announces joins and
// leaves. The server holds the one true password of the session, fixed at
// construction.
type Server struct {
	name     string
	password string
	display  DisplayFunc

	listener net.Listener
	clients  *roster

	started bool
	startMu sync.Mutex

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewServer binds the listening socket. Port 0 picks a free port; Addr
// reports the effective one. A bind failure (port in use, privileges) is
// returned as-is.
func NewServer(name, password string, port int, display DisplayFunc) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %d: %w", port, err)
	}

	return &Server{
		name:     name,
		password: password,
		display:  display,
		listener: listener,
		clients:  newRoster(),
	}, nil
}

// Name returns the server's display name.
func (s *Server) Name() string {
	return s.name
}

// Addr returns the listener address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Start launches the accept loop. Each accepted socket gets its own session
// goroutine, so a client stuck in its handshake never delays the next
// accept.
func (s *Server) Start() error {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	s.wg.Add(1)
	go s.acceptLoop()

	logger.Infof("server %q listening on %s", s.name, s.listener.Addr())
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		nc, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Infof("server %q: listener closed, accept loop ending", s.name)
			} else {
				logger.Errorf("server %q: accept failed: %v", s.name, err)
			}
			return
		}

		client := NewClient(placeholderName, nc, s.display)
		s.wg.Add(1)
		go s.runSession(client)
	}
}

// runSession drives one accepted connection from handshake to teardown. On
// success the session goroutine becomes the relay path for this client: its
// receive loop forwards every chat line to the rest of the live set. The
// final leave notice is broadcast unconditionally, also after a failed
// handshake, so that anyone who saw a join for this client also sees a
// leave.
func (s *Server) runSession(client *Client) {
	defer s.wg.Done()

	logger.Debugf("session %s: accepted connection from %s", client.id, client.conn.remoteAddr())

	if client.checkAuthentication(s.password) {
		s.clients.broadcast(wire.JoinNotice(client.Name()))
		// The response lists the live set before this client joins it, so
		// the new client sees the server first and its peers in join order.
		client.sendRaw(wire.AuthResponse(s.name, s.clients.names()))

		s.clients.add(client)
		s.display(fmt.Sprintf("%q has joined the conversation.", client.Name()))
		logger.Infof("session %s: %q authenticated", client.id, client.Name())

		client.listen(s.clients)

		s.clients.remove(client)
		s.display(fmt.Sprintf("%q has left the conversation.", client.Name()))
		logger.Infof("session %s: %q disconnected", client.id, client.Name())
	} else {
		s.display(fmt.Sprintf("%q entered a wrong password.", client.Name()))
		logger.Warnf("session %s: authentication failed for %q", client.id, client.Name())
	}

	client.Close()
	s.clients.broadcast(wire.LeaveNotice(client.Name()))
}

// Send broadcasts user-typed text as "name:text" to every live client. It
// reports false, without any I/O, for empty text or when no client is
// connected.
func (s *Server) Send(text string) bool {
	if text == "" || s.clients.empty() {
		return false
	}
	s.clients.broadcast(wire.ChatMessage(s.name, text))
	return true
}

// Close force-disconnects all clients and closes the listener, ending the
// accept loop and every session. Idempotent.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.clients.closeAll()
		err = s.listener.Close()
	})
	return err
}

// Wait blocks until the accept loop and all session goroutines have
// returned. Call after Close.
func (s *Server) Wait() {
	s.wg.Wait()
}
