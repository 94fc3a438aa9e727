// Package hub supervises the WebSocket transport: upgrading HTTP
// connections, running the read/write pumps the teacher's signaling
// handler uses, and handing decoded frames to the signaling engine.
package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// wsChannel adapts a *websocket.Conn to session.Channel. Send never
// blocks the caller: it enqueues onto a buffered channel drained by a
// dedicated write-pump goroutine, and reports the buffer-full case as
// an error rather than stalling whichever signaling handler is holding
// the engine's lock.
type wsChannel struct {
	conn *websocket.Conn

	send chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func newWSChannel(conn *websocket.Conn) *wsChannel {
	return &wsChannel{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
	}
}

// Send enqueues frame for delivery by the write pump. It returns an
// error without blocking if the channel is already closed or its
// buffer is full.
func (c *wsChannel) Send(frame []byte) error {
	select {
	case <-c.closed:
		return websocket.ErrCloseSent
	default:
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return errBufferFull
	}
}

// Close idempotently tears down the channel, unblocking both pumps.
func (c *wsChannel) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
	return nil
}

// readPump reads frames one at a time off the connection and hands
// each to onFrame, until the connection errors or is closed. It owns
// the read deadline and pong handler; the caller is responsible for
// calling Close and running the disconnect handler once readPump
// returns.
func (c *wsChannel) readPump(maxSize int64, onFrame func([]byte)) {
	c.conn.SetReadLimit(maxSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		onFrame(data)
	}
}

// writePump drains the send channel onto the connection and emits
// periodic pings, in the gorilla/websocket idiom: one goroutine owns
// every write to the connection.
func (c *wsChannel) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

type bufferFullError struct{}

func (bufferFullError) Error() string { return "hub: send buffer full" }

var errBufferFull = bufferFullError{}
