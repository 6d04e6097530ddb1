// Package room maintains a client's websocket connection to a race room.
// A connection owns a single reader goroutine that decodes inbound frames
// into typed events; join rejections arrive as close frames with the
// policy-violation code and are classified by their reason string.
package room

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/rapidkeys/rapidkeys/internal/protocol"
)

const wsPathPrefix = "/api/v1/multiplayer/ws/"

// Event is one item on the connection's event stream. Exactly one of
// Server and Err is set; an Err event is terminal and the stream closes
// after it.
type Event struct {
	Server protocol.ServerEvent
	Err    error
}

// Conn is a live connection to a room. Events are consumed from Events();
// commands are sent with Send. Both are safe for concurrent use.
type Conn struct {
	ws     *websocket.Conn
	events chan Event

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
}

// URL derives the room websocket address from the base service address:
// the scheme is upgraded to its websocket counterpart, the room code
// selects the path, and the token rides as a query parameter.
func URL(baseURL, roomCode, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = wsPathPrefix + roomCode
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}

// Connect dials the room identified by roomCode. An empty token fails
// synchronously with ErrNoToken before any network activity. Dial
// failures surface as TransportError; join rejections arrive later on
// the event stream once the server closes the handshake.
func Connect(ctx context.Context, baseURL, roomCode, token string) (*Conn, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	addr, err := URL(baseURL, roomCode, token)
	if err != nil {
		return nil, err
	}
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return nil, &TransportError{Err: err}
	}
	c := &Conn{
		ws:     ws,
		events: make(chan Event, 16),
	}
	go c.readLoop()
	return c, nil
}

// Events returns the inbound event stream. The channel closes after a
// terminal Err event or after Close.
func (c *Conn) Events() <-chan Event {
	return c.events
}

// Send writes one command to the room. When the connection is no longer
// open the command is dropped with a warning; callers never need to
// guard sends against races with disconnection.
func (c *Conn) Send(cmd protocol.ClientCommand) {
	c.closeMu.Lock()
	closed := c.closed
	c.closeMu.Unlock()
	if closed {
		log.Printf("room: dropping %T, connection closed", cmd)
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteJSON(cmd); err != nil {
		log.Printf("room: dropping %T: %v", cmd, err)
	}
}

// Close tears the connection down. Safe to call multiple times and
// concurrently with Send.
func (c *Conn) Close() {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return
	}
	c.closed = true
	c.closeMu.Unlock()

	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteMessage(websocket.CloseMessage, msg)
	c.writeMu.Unlock()
	_ = c.ws.Close()
}

// readLoop is the connection's single reader. Undecodable frames are
// logged and dropped without disturbing the connection; a read failure
// is classified and emitted as the stream's terminal event.
func (c *Conn) readLoop() {
	defer close(c.events)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.closeMu.Lock()
			closed := c.closed
			c.closeMu.Unlock()
			if !closed {
				c.events <- Event{Err: classifyClose(err)}
				c.Close()
			}
			return
		}
		ev, err := protocol.DecodeServerEvent(data)
		if err != nil {
			log.Printf("room: dropping malformed frame: %v", err)
			continue
		}
		if _, ok := ev.(protocol.Unknown); ok {
			continue
		}
		c.events <- Event{Server: ev}
	}
}

// classifyClose turns a read failure into the protocol's error taxonomy.
// A policy-violation close is an authoritative rejection keyed by its
// reason string; everything else is a transport failure.
func classifyClose(err error) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && closeErr.Code == websocket.ClosePolicyViolation {
		return &RejectionError{Kind: classifyReason(closeErr.Text), Reason: closeErr.Text}
	}
	return &TransportError{Err: err}
}
