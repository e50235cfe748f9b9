// Package push maintains the persistent channel over which the server
// delivers events (new notifications, new posts, post updates, new
// comments) to the signed-in client. One logical connection exists per
// session; subscribers register per event class and the read loop fans
// incoming events out to them in delivery order.
package push

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Handler receives the raw payload of one pushed event.
type Handler func(data json.RawMessage)

// Session supplies the credentials the channel authenticates with.
// The session manager implements it; tests use a stub.
type Session interface {
	// Credentials returns the bearer token and user id of the current
	// session. An empty token means signed out.
	Credentials() (token, userID string)
}

// Default reconnection policy: after a transport-level disconnect the
// client retries this many times with a fixed delay, then gives up
// until Connect is called again.
const (
	DefaultReconnectAttempts = 5
	DefaultReconnectDelay    = time.Second
)

// Client is the push-channel client. All methods are safe for
// concurrent use; handlers run on the read-loop goroutine.
type Client struct {
	url         string
	naming      Naming
	maxAttempts int
	retryDelay  time.Duration
	dialer      *websocket.Dialer
	session     Session

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	gen       int
	handlers  map[Class]map[int]Handler
	nextSub   int
}

// Option adjusts client construction.
type Option func(*Client)

// WithReconnectPolicy overrides the bounded reconnection policy.
func WithReconnectPolicy(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = attempts
		c.retryDelay = delay
	}
}

// WithNaming selects the wire event-name convention used when talking
// to the server.
func WithNaming(naming Naming) Option {
	return func(c *Client) {
		c.naming = naming
	}
}

// NewClient creates a push-channel client for the given websocket URL.
// The client starts disconnected; call Connect once a session exists.
func NewClient(url string, session Session, opts ...Option) *Client {
	c := &Client{
		url:         url,
		naming:      NamingCamel,
		maxAttempts: DefaultReconnectAttempts,
		retryDelay:  DefaultReconnectDelay,
		dialer:      websocket.DefaultDialer,
		session:     session,
		handlers:    make(map[Class]map[int]Handler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect opens the channel if it is not already open. It is a no-op
// when connected, and silently a no-op (logged) when no session
// exists; the caller is expected to retry after login completes.
// Connection failures are never surfaced as errors: callers observe
// only IsConnected and the events that do arrive.
func (c *Client) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return
	}
	gen := c.gen
	c.mu.Unlock()

	token, userID := c.session.Credentials()
	if token == "" {
		log.Printf("push: connect skipped, no session")
		return
	}

	conn, err := c.dial(ctx, token, userID)
	if err != nil {
		log.Printf("push: connect failed: %v", err)
		go c.reconnect(gen)
		return
	}
	c.adopt(conn, gen)
}

// dial opens the websocket and announces the user to the server.
func (c *Client) dial(ctx context.Context, token, userID string) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	// Join the user's event room, mirroring the emit the web client
	// performs on connect.
	join := Envelope{Event: "join", Data: mustJSON(userID)}
	if err := conn.WriteJSON(join); err != nil {
		conn.Close()
		return nil, err
	}

	// Announce the event names this client listens for, under the
	// configured wire convention.
	listen := Envelope{Event: "listen", Data: mustJSON(c.listenNames())}
	if err := conn.WriteJSON(listen); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// listenNames returns every event class's wire name under the
// configured convention.
func (c *Client) listenNames() []string {
	names := make([]string, 0, len(Classes))
	for _, class := range Classes {
		names = append(names, WireName(class, c.naming))
	}
	return names
}

// adopt installs a freshly dialed connection and starts its read loop,
// unless Disconnect was called while dialing.
func (c *Client) adopt(conn *websocket.Conn, gen int) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readLoop(conn, gen)
}

// Subscribe registers a handler for one event class and returns the
// capability to remove exactly that handler. Independent subscribers
// to the same class each receive every event once.
func (c *Client) Subscribe(class Class, h Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handlers[class] == nil {
		c.handlers[class] = make(map[int]Handler)
	}
	id := c.nextSub
	c.nextSub++
	c.handlers[class][id] = h

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers[class], id)
	}
}

// Disconnect tears down the transport and clears all handler
// registrations. Safe to call when not connected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.gen++
	c.connected = false
	conn := c.conn
	c.conn = nil
	c.handlers = make(map[Class]map[int]Handler)
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// IsConnected reports whether the transport is currently open.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// readLoop reads frames until the transport fails or is torn down.
func (c *Client) readLoop(conn *websocket.Conn, gen int) {
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			c.mu.Lock()
			deliberate := gen != c.gen
			if !deliberate {
				c.connected = false
				c.conn = nil
			}
			c.mu.Unlock()

			if deliberate {
				return
			}
			log.Printf("push: channel lost: %v", err)
			c.reconnect(gen)
			return
		}
		c.dispatch(env)
	}
}

// dispatch fans one event out to every subscriber of its class.
// Unknown event names are ignored.
func (c *Client) dispatch(env Envelope) {
	class, ok := ClassOf(env.Event)
	if !ok {
		return
	}

	c.mu.Lock()
	hs := make([]Handler, 0, len(c.handlers[class]))
	for _, h := range c.handlers[class] {
		hs = append(hs, h)
	}
	c.mu.Unlock()

	for _, h := range hs {
		h(env.Data)
	}
}

// reconnect retries the transport with bounded attempts and a fixed
// delay. After exhausting attempts the client stays disconnected until
// Connect is called again.
func (c *Client) reconnect(gen int) {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		time.Sleep(c.retryDelay)

		c.mu.Lock()
		stale := gen != c.gen
		c.mu.Unlock()
		if stale {
			return
		}

		token, userID := c.session.Credentials()
		if token == "" {
			// Session ended while we were retrying.
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		conn, err := c.dial(ctx, token, userID)
		cancel()
		if err != nil {
			log.Printf("push: reconnect attempt %d/%d failed: %v",
				attempt, c.maxAttempts, err)
			continue
		}

		c.adopt(conn, gen)
		return
	}
	log.Printf("push: giving up after %d reconnect attempts", c.maxAttempts)
}

// mustJSON marshals a value that cannot fail (strings, numbers).
func mustJSON(v interface{}) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
