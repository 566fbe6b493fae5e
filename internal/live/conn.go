package live

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/stagelight/podium/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// conn is one websocket attached to a hub. The pumps own the socket; all
// game-visible fields (player assignment, registration) are touched only on
// the hub goroutine. sendMu guards the send channel against a write racing
// its close.
type conn struct {
	id   string
	hub  *Hub
	ws   *websocket.Conn
	send chan []byte
	log  zerolog.Logger

	sendMu     sync.Mutex
	sendClosed bool

	role protocol.Role

	// join / resume claims from the connect URL, consumed at registration
	name   string
	resume int

	// assigned at registration for player connections
	player int
}

// readPump decodes intents off the socket and hands them to the hub. It
// owns the unregister: when the read side dies, the connection is done.
func (c *conn) readPump() {
	defer func() {
		c.hub.unregisterConn(c)
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("websocket closed unexpectedly")
			}
			return
		}

		var intent protocol.Intent
		if err := json.Unmarshal(raw, &intent); err != nil || intent.Type == "" {
			c.reply(protocol.ErrorEvent{
				Type:    protocol.EventError,
				Code:    protocol.CodeBadIntent,
				Message: "unparseable intent frame",
			})
			continue
		}
		if !c.hub.submit(c, intent) {
			return
		}
	}
}

// writePump drains the send channel onto the socket and keeps the ping
// ticker going. Closing the send channel makes it write a close frame and
// tear the socket down.
func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// reply queues a frame for this connection only, from any goroutine. A full
// buffer drops the frame; the hub's own sends handle eviction.
func (c *conn) reply(ev any) {
	frame, err := json.Marshal(ev)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to marshal event")
		return
	}
	_ = c.enqueue(frame)
}

// enqueue queues one frame without blocking. It reports false when the
// buffer is full and the connection should be evicted; frames for closed
// connections are silently dropped.
func (c *conn) enqueue(frame []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return true
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once, which makes the write
// pump finish the websocket close handshake.
func (c *conn) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}
