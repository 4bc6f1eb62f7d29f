package session

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// scriptedDispatcher answers like the command table without dragging the
// real store into transport tests.
type scriptedDispatcher struct{}

func (scriptedDispatcher) Dispatch(line, _ string) (string, bool) {
	switch line {
	case "BC":
		return "BC 10.0.0.5", false
	case "exit":
		return "OK Goodbye", true
	default:
		return "ER unknown command", false
	}
}

func TestSessionWritesReply(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go NewSession(server, scriptedDispatcher{}, time.Second).Run()

	_, err := client.Write([]byte("BC\r\n"))
	assert.NoError(t, err)

	reader := bufio.NewReader(client)
	reply, err := reader.ReadString('\n')

	assert.NoError(t, err)
	assert.Equal(t, "BC 10.0.0.5\r\n", reply)
}

func TestSessionToleratesBareLF(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go NewSession(server, scriptedDispatcher{}, time.Second).Run()

	_, err := client.Write([]byte("BC\n"))
	assert.NoError(t, err)

	reply, err := bufio.NewReader(client).ReadString('\n')

	assert.NoError(t, err)
	assert.Equal(t, "BC 10.0.0.5\r\n", reply)
}

func TestSessionSkipsEmptyLines(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go NewSession(server, scriptedDispatcher{}, time.Second).Run()

	_, err := client.Write([]byte("\r\n   \r\nBC\r\n"))
	assert.NoError(t, err)

	reply, err := bufio.NewReader(client).ReadString('\n')

	assert.NoError(t, err)
	assert.Equal(t, "BC 10.0.0.5\r\n", reply)
}

func TestSessionClosesAfterExit(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go NewSession(server, scriptedDispatcher{}, time.Second).Run()

	_, err := client.Write([]byte("exit\r\n"))
	assert.NoError(t, err)

	reader := bufio.NewReader(client)

	reply, err := reader.ReadString('\n')
	assert.NoError(t, err)
	assert.Equal(t, "OK Goodbye\r\n", reply)

	_ = client.SetReadDeadline(time.Now().Add(time.Second))
	_, err = reader.ReadString('\n')
	assert.Error(t, err)
}

func TestSessionIdleTimeoutClosesSilently(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go NewSession(server, scriptedDispatcher{}, 50*time.Millisecond).Run()

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))

	// no input at all: the session must close without a final message
	_, err := bufio.NewReader(client).ReadString('\n')
	assert.Error(t, err)
}

func TestServerServesConnections(t *testing.T) {
	srv := NewServer("127.0.0.1:0", time.Second, scriptedDispatcher{})
	go func() {
		_ = srv.ListenAndServe()
	}()
	defer srv.Close()

	addr := waitForAddr(t, srv)

	conn, err := net.Dial("tcp", addr.String())
	assert.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("BC\r\n"))
	assert.NoError(t, err)

	reply, err := bufio.NewReader(conn).ReadString('\n')
	assert.NoError(t, err)
	assert.Equal(t, "BC 10.0.0.5\r\n", reply)
}

func TestServerCloseStopsAcceptLoop(t *testing.T) {
	srv := NewServer("127.0.0.1:0", time.Second, scriptedDispatcher{})

	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe()
	}()

	waitForAddr(t, srv)
	assert.NoError(t, srv.Close())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("accept loop did not stop after Close")
	}
}

func waitForAddr(t *testing.T, srv *Server) net.Addr {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if addr := srv.Addr(); addr != nil {
			return addr
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatal("server did not start listening")
	return nil
}
