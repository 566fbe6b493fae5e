// Package client is the Go-side transport for a live session: one logical
// connection per Client, JSON intents out, typed event frames in, and an
// exponential-backoff reconnect when the socket drops unexpectedly.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/stagelight/podium/internal/protocol"
)

// ErrClosed reports a send or dial against a client that has terminally
// closed, either explicitly or after exhausting reconnect attempts.
var ErrClosed = errors.New("client: connection closed")

// ErrReconnecting reports a send while the socket is down but a reconnect
// is still in flight. The client is not dead; callers can retry once the
// next event frame arrives.
var ErrReconnecting = errors.New("client: reconnect in progress")

// Config describes one logical connection. URL is the server's websocket
// endpoint for the session, e.g. ws://host/live/CODE/ws.
type Config struct {
	URL  string
	Role protocol.Role

	// Name joins as a new player; PlayerNumber resumes an existing one.
	// Player connections need exactly one of the two.
	Name         string
	PlayerNumber int

	// Reconnect policy. Zero values take the defaults: 1s initial delay,
	// doubling, 5 attempts.
	InitialBackoff time.Duration
	MaxAttempts    int

	Clock clockwork.Clock
	Log   zerolog.Logger
}

const (
	defaultInitialBackoff = time.Second
	defaultMaxAttempts    = 5
)

// Handler receives one server event frame: its parsed type plus the raw
// JSON for the caller to decode into the matching event struct.
type Handler func(eventType protocol.EventType, raw []byte)

// Client maintains at most one live websocket. Handlers survive reconnects
// and are cleared only on terminal close.
type Client struct {
	cfg  Config
	dest string

	mu       sync.Mutex
	ws       *websocket.Conn
	handlers map[int]Handler
	nextID   int
	closed   bool

	done chan struct{}
}

// Dial connects once and starts the read loop. Connection failure here is
// returned to the caller; reconnect policy only applies to an established
// connection dropping later.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}

	dest, err := connectURL(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:      cfg,
		dest:     dest,
		handlers: make(map[int]Handler),
		done:     make(chan struct{}),
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, dest, nil)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", dest, err)
	}
	c.ws = ws

	go c.readLoop(ws)
	return c, nil
}

// connectURL folds the role and join/resume claims into the query string.
func connectURL(cfg Config) (string, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("client: bad url %q: %w", cfg.URL, err)
	}
	q := u.Query()
	q.Set("role", string(cfg.Role))
	if cfg.PlayerNumber > 0 {
		q.Set("player", strconv.Itoa(cfg.PlayerNumber))
	} else if cfg.Name != "" {
		q.Set("name", cfg.Name)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Send writes one intent on the live socket. During a reconnect the gap is
// transient and reported as ErrReconnecting; a dead client reports ErrClosed.
func (c *Client) Send(intent protocol.Intent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.ws == nil {
		return ErrReconnecting
	}
	if err := c.ws.WriteJSON(intent); err != nil {
		return fmt.Errorf("client: send %s: %w", intent.Type, err)
	}
	return nil
}

// OnMessage subscribes a handler to every incoming event and returns its
// unsubscribe. Handlers run on the read loop, in registration order.
func (c *Client) OnMessage(fn Handler) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	if c.handlers != nil {
		c.handlers[id] = fn
	}
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.handlers != nil {
			delete(c.handlers, id)
		}
	}
}

// Close terminally closes the client. Pending handlers are cleared; a
// closed client never reconnects.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	ws := c.ws
	c.terminateLocked()
	c.mu.Unlock()
	if ws != nil {
		return ws.Close()
	}
	return nil
}

// Done closes when the client has terminally closed, whether by Close or by
// exhausting reconnect attempts.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// terminateLocked clears the handler set and marks the client dead.
func (c *Client) terminateLocked() {
	c.closed = true
	c.ws = nil
	c.handlers = nil
	close(c.done)
}

func (c *Client) readLoop(ws *websocket.Conn) {
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				return
			}
			c.ws = nil
			c.mu.Unlock()
			c.reconnect()
			return
		}
		c.dispatch(raw)
	}
}

func (c *Client) dispatch(raw []byte) {
	var head struct {
		Type protocol.EventType `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil || head.Type == "" {
		c.cfg.Log.Debug().Msg("dropping unparseable server frame")
		return
	}

	// Once the server assigns a player number, reconnects must resume that
	// player instead of joining the roster again.
	if head.Type == protocol.EventConnectionEstablished && c.cfg.Role == protocol.RolePlayer {
		var ev protocol.ConnectionEstablishedEvent
		if err := json.Unmarshal(raw, &ev); err == nil && ev.PlayerNumber > 0 {
			c.adoptPlayer(ev.PlayerNumber)
		}
	}

	c.mu.Lock()
	fns := make([]Handler, 0, len(c.handlers))
	for _, fn := range c.handlers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(head.Type, raw)
	}
}

func (c *Client) adoptPlayer(number int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg.PlayerNumber == number {
		return
	}
	c.cfg.PlayerNumber = number
	if dest, err := connectURL(c.cfg); err == nil {
		c.dest = dest
	}
}

// reconnect retries with exponential backoff: initial delay, doubling per
// attempt, a capped number of tries. Exhausting them is a terminal close.
func (c *Client) reconnect() {
	backoff := c.cfg.InitialBackoff
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		select {
		case <-c.done:
			return
		case <-c.cfg.Clock.After(backoff):
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		ws, _, err := websocket.DefaultDialer.Dial(c.dest, nil)
		if err == nil {
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				_ = ws.Close()
				return
			}
			c.ws = ws
			c.mu.Unlock()
			c.cfg.Log.Info().Int("attempt", attempt).Msg("reconnected")
			c.readLoop(ws)
			return
		}
		c.cfg.Log.Warn().Err(err).Int("attempt", attempt).Dur("backoff", backoff).Msg("reconnect failed")
		backoff *= 2
	}

	c.cfg.Log.Error().Int("attempts", c.cfg.MaxAttempts).Msg("reconnect attempts exhausted")
	c.mu.Lock()
	if !c.closed {
		c.terminateLocked()
	}
	c.mu.Unlock()
}
