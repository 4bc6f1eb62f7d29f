// Package session owns client connections: CRLF line framing, the idle
// deadline and strictly sequential command handling.
package session

import (
	"bufio"
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Dispatcher turns one command line from peer into a reply line and a
// close request.
type Dispatcher interface {
	Dispatch(line, peer string) (reply string, closeConn bool)
}

type Session struct {
	conn       net.Conn
	dispatcher Dispatcher
	idle       time.Duration
}

func NewSession(conn net.Conn, d Dispatcher, idle time.Duration) *Session {
	return &Session{
		conn:       conn,
		dispatcher: d,
		idle:       idle,
	}
}

// Run processes lines until the connection ends. The idle deadline resets
// on every received line; expiry closes the connection without a goodbye.
// The next line is not read before the previous reply has been written.
func (s *Session) Run() {
	defer func() {
		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Debugf("error closing client connection: %v", err)
		}
	}()

	peer := peerAddr(s.conn)
	log.Infof("client %s connected", peer)

	reader := bufio.NewReader(s.conn)

	for {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.idle)); err != nil {
			log.Warnf("failed to arm idle deadline for %s: %v", peer, err)
			return
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				log.Infof("client %s idle for %v, closing", peer, s.idle)
			} else {
				log.Infof("client %s disconnected: %v", peer, err)
			}
			return
		}

		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		reply, closeConn := s.dispatcher.Dispatch(line, peer)
		if reply != "" {
			if _, err := s.conn.Write([]byte(reply + "\r\n")); err != nil {
				log.Warnf("failed to write reply to %s: %v", peer, err)
				return
			}
		}
		if closeConn {
			log.Infof("client %s said goodbye", peer)
			return
		}
	}
}

// peerAddr strips the ephemeral port; clients are identified by address
// alone for account ownership.
func peerAddr(conn net.Conn) string {
	addr := conn.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
