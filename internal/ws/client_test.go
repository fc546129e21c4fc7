package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialTestConn(t *testing.T) *clientConn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_, _, _ = c.ReadMessage() // hold the peer open until the client closes
	}))
	t.Cleanup(srv.Close)

	raw, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	conn := newClientConn("c1", raw)
	t.Cleanup(conn.close)
	return conn
}

func TestCloseStopsPinger(t *testing.T) {
	conn := dialTestConn(t)

	stopped := make(chan struct{})
	go func() {
		(&WsServer{}).pinger(conn)
		close(stopped)
	}()

	conn.close()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("pinger still running after close")
	}
}

func TestCloseIdempotent(t *testing.T) {
	conn := dialTestConn(t)
	conn.close()
	conn.close() // second close is a no-op, not a panic
}
