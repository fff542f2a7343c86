package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Subtitle events are small; a deep buffer only delays the inevitable
	// on a stalled peer, so overflow drops instead of blocking broadcasts.
	sendBufferSize = 64
)

var errConnClosed = errors.New("connection closed")
var errSendBufferFull = errors.New("send buffer full")

// conn wraps a websocket with a buffered write pump. SendJSON never blocks:
// the registry's broadcast loop must not stall on one slow peer.
type conn struct {
	ws   *websocket.Conn
	send chan any
	done chan struct{}
	once sync.Once
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{
		ws:   ws,
		send: make(chan any, sendBufferSize),
		done: make(chan struct{}),
	}
}

func (c *conn) SendJSON(v any) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	select {
	case c.send <- v:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *conn) Close() error {
	c.once.Do(func() { close(c.done) })
	return c.ws.Close()
}

// writePump owns all writes on the socket, including keepalive pings.
func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case v := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(v); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
