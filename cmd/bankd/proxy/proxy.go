// Package proxy forwards a single command line to a remote bank and relays
// its one-line reply. Every call is one round trip on a fresh connection;
// there is no pooling.
package proxy

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	ErrConnect = errors.New("unable to reach remote bank")
	ErrTimeout = errors.New("remote bank did not reply in time")
)

type Forwarder struct {
	port   int
	dialer net.Dialer
}

// NewForwarder targets remote banks on the given port, the same one this
// node listens on.
func NewForwarder(port int) *Forwarder {
	return &Forwarder{port: port}
}

// Forward dials bankCode, writes the original line terminated by CRLF and
// waits for exactly one reply line. The context deadline bounds the whole
// round trip; cancelling the context closes the outbound socket, which
// abandons the call.
func (f *Forwarder) Forward(ctx context.Context, bankCode, line string) (string, error) {
	addr := net.JoinHostPort(bankCode, strconv.Itoa(f.port))

	conn, err := f.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctx.Err() != nil {
			log.Warnf("dialing remote bank %s timed out", bankCode)
			return "", ErrTimeout
		}
		log.Warnf("failed to dial remote bank %s: %v", bankCode, err)
		return "", ErrConnect
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return "", ErrConnect
		}
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if _, err := conn.Write([]byte(line + "\r\n")); err != nil {
		return "", f.classify(bankCode, err)
	}

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return "", f.classify(bankCode, err)
	}

	return strings.TrimRight(reply, "\r\n"), nil
}

func (f *Forwarder) classify(bankCode string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		log.Warnf("remote bank %s did not reply before the deadline", bankCode)
		return ErrTimeout
	}

	log.Warnf("transport error while proxying to remote bank %s: %v", bankCode, err)
	return ErrConnect
}
