package transport

import (
	"context"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
)

// TCPServer accepts any number of client connections and fans every
// Write out to all of them, merging all of their inbound bytes into a
// single Read stream; its "bus" is a TCP listener for display and
// chartplotter clients.
type TCPServer struct {
	addr   string
	log    *logrus.Entry
	ln     net.Listener
	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	inbox  chan []byte
	cancel context.CancelFunc
}

func NewTCPServer(addr string, log *logrus.Entry) *TCPServer {
	return &TCPServer{
		addr:  addr,
		log:   log,
		conns: make(map[net.Conn]struct{}),
		inbox: make(chan []byte, 64),
	}
}

func (s *TCPServer) Initialize(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	acceptCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.acceptLoop(acceptCtx)
	return nil
}

func (s *TCPServer) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			s.log.WithError(err).Warn("tcp server accept failed")
			return
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		go s.readLoop(ctx, conn)
	}
}

func (s *TCPServer) readLoop(ctx context.Context, conn net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()
	buf := make([]byte, 512)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.inbox <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// Read blocks until a connected client sends bytes.
func (s *TCPServer) Read(b []byte) (int, error) {
	chunk, ok := <-s.inbox
	if !ok {
		return 0, net.ErrClosed
	}
	return copy(b, chunk), nil
}

// Write broadcasts to every currently connected client; failures on one
// connection don't stop delivery to the others.
func (s *TCPServer) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		if _, err := conn.Write(b); err != nil {
			s.log.WithError(err).Debug("tcp server client write failed")
		}
	}
	return len(b), nil
}

func (s *TCPServer) Flush() error { return nil }

func (s *TCPServer) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}
