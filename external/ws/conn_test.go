package ws

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newSocketPair upgrades a loopback connection and returns both ends.
func newSocketPair(t *testing.T) (server, client *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	serverCh := make(chan *websocket.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		serverCh <- ws
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	select {
	case server = <-serverCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server side of socket")
	}
	t.Cleanup(func() { server.Close() })
	return server, client
}

func TestSendJSONDeliversThroughWritePump(t *testing.T) {
	serverWS, clientWS := newSocketPair(t)
	c := newConn(serverWS)
	go c.writePump()
	defer c.Close()

	if err := c.SendJSON(map[string]string{"type": "subtitle"}); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}

	var got map[string]string
	_ = clientWS.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := clientWS.ReadJSON(&got); err != nil {
		t.Fatalf("client read failed: %v", err)
	}
	if got["type"] != "subtitle" {
		t.Fatalf("unexpected payload %v", got)
	}
}

func TestSendJSONDropsWhenBufferFull(t *testing.T) {
	serverWS, _ := newSocketPair(t)
	// No write pump: the buffer fills and overflow must not block.
	c := newConn(serverWS)

	for i := 0; i < sendBufferSize; i++ {
		if err := c.SendJSON(i); err != nil {
			t.Fatalf("send %d failed unexpectedly: %v", i, err)
		}
	}
	if err := c.SendJSON("overflow"); !errors.Is(err, errSendBufferFull) {
		t.Fatalf("expected errSendBufferFull, got %v", err)
	}
}

func TestSendJSONAfterClose(t *testing.T) {
	serverWS, _ := newSocketPair(t)
	c := newConn(serverWS)
	if err := c.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := c.Close(); err == nil {
		// Second close reports the underlying socket error; either way it
		// must not panic.
		t.Log("second close returned nil")
	}
	if err := c.SendJSON("late"); !errors.Is(err, errConnClosed) {
		t.Fatalf("expected errConnClosed, got %v", err)
	}
}

func TestBearerTokenSources(t *testing.T) {
	withHeader := httptest.NewRequest(http.MethodGet, "/rooms/r1", nil)
	withHeader.Header.Set("Authorization", "Bearer abc123")
	if got := bearerToken(withHeader); got != "abc123" {
		t.Fatalf("expected header token, got %q", got)
	}

	withQuery := httptest.NewRequest(http.MethodGet, "/rooms/r1?token=qtok", nil)
	if got := bearerToken(withQuery); got != "qtok" {
		t.Fatalf("expected query token, got %q", got)
	}

	neither := httptest.NewRequest(http.MethodGet, "/rooms/r1", nil)
	if got := bearerToken(neither); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}
