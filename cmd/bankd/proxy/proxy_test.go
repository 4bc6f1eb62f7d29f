package proxy

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestForwardRoundTrip(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	defer l.Close()

	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		line, err := bufio.NewReader(conn).ReadString('\n')
		assert.NoError(t, err)
		assert.Equal(t, "AB 41234/10.0.0.5\r\n", line)

		_, _ = conn.Write([]byte("AB 500\r\n"))
	}()

	f := NewForwarder(l.Addr().(*net.TCPAddr).Port)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reply, err := f.Forward(ctx, "127.0.0.1", "AB 41234/10.0.0.5")

	assert.NoError(t, err)
	assert.Equal(t, "AB 500", reply)
}

func TestForwardTimeoutOnSilentRemote(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	defer l.Close()

	// accept and read, but never reply
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = bufio.NewReader(conn).ReadString('\n')
		<-time.After(5 * time.Second)
	}()

	f := NewForwarder(l.Addr().(*net.TCPAddr).Port)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = f.Forward(ctx, "127.0.0.1", "AB 41234/10.0.0.5")

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestForwardConnectError(t *testing.T) {
	// grab a port that is certainly closed
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	assert.NoError(t, l.Close())

	f := NewForwarder(port)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = f.Forward(ctx, "127.0.0.1", "BC")

	assert.ErrorIs(t, err, ErrConnect)
}

func TestForwardAbandonedOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	defer l.Close()

	accepted := make(chan struct{})
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		close(accepted)
		defer conn.Close()
		_, _ = bufio.NewReader(conn).ReadString('\n')
		<-time.After(5 * time.Second)
	}()

	f := NewForwarder(l.Addr().(*net.TCPAddr).Port)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-accepted
		cancel()
	}()

	start := time.Now()
	_, err = f.Forward(ctx, "127.0.0.1", "BC")

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
