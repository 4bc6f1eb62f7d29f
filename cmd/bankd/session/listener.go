package session

import (
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Server accepts client connections and runs one session goroutine per
// connection.
type Server struct {
	addr       string
	idle       time.Duration
	dispatcher Dispatcher

	mu       sync.Mutex
	listener net.Listener
}

func NewServer(addr string, idle time.Duration, d Dispatcher) *Server {
	return &Server{
		addr:       addr,
		idle:       idle,
		dispatcher: d,
	}
}

// ListenAndServe blocks until the listener is closed. A failed accept is
// logged and the loop continues; only a closed listener ends it.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.addr)
	}

	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	log.Infof("bank node listening on %s", l.Addr())

	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Errorf("failed to accept connection: %v", err)
			continue
		}

		go NewSession(conn, s.dispatcher, s.idle).Run()
	}
}

// Addr reports the bound address, useful when listening on port 0.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}
