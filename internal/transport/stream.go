package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// ErrStreamNotReady is returned by Send when the socket is not open.
var ErrStreamNotReady = errors.New("stream is not ready")

// resultBuffer bounds how many undelivered results are held before the
// oldest is dropped. The consumer normally drains faster than the
// detector replies, so drops only happen around teardown.
const resultBuffer = 16

// StreamClient wraps one bidirectional WebSocket to the detector's
// streaming endpoint. Sends are fire-and-forget: the capture loop
// never waits for a reply, so multiple requests may be in flight and
// replies may arrive out of send order. There is no bound on in-flight
// requests beyond the sender's fixed frame interval.
//
// The client never reconnects on its own. Once the socket errors,
// Ready reports false and the capture loop's readiness check stalls
// sending; recovery is a new client dialed by the next session start.
type StreamClient struct {
	conn    *websocket.Conn
	results chan Result

	mu     sync.Mutex
	ready  bool
	closed bool
}

// DialStream connects to the streaming endpoint under baseURL
// (an http:// or https:// service address) and starts the reader.
func DialStream(baseURL string) (*StreamClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid detector URL %q: %w", baseURL, err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported detector URL scheme %q", u.Scheme)
	}
	u.Path = StreamPath

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to detector stream: %w", err)
	}

	c := &StreamClient{
		conn:    conn,
		results: make(chan Result, resultBuffer),
		ready:   true,
	}
	go c.readLoop()

	return c, nil
}

// Ready reports whether the socket is open for sending. This is the
// capture loop's skip-frame backpressure check: while false, frames
// are skipped rather than buffered.
func (c *StreamClient) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ready
}

// Send submits one frame without waiting for its reply.
func (c *StreamClient) Send(req FrameRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		return ErrStreamNotReady
	}

	if err := c.conn.WriteJSON(req); err != nil {
		c.ready = false
		return fmt.Errorf("failed to send frame: %w", err)
	}

	return nil
}

// Results delivers parsed detection replies. The channel is closed
// when the socket closes or errors.
func (c *StreamClient) Results() <-chan Result {
	return c.results
}

// readLoop parses inbound messages. A malformed message is logged and
// dropped; it never affects the socket or later messages.
func (c *StreamClient) readLoop() {
	defer close(c.results)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			wasClosed := c.closed
			c.ready = false
			c.mu.Unlock()

			if !wasClosed {
				log.Printf("Detector stream closed: %v", err)
			}
			return
		}

		var result Result
		if err := json.Unmarshal(data, &result); err != nil {
			log.Printf("Discarding malformed detection message: %v", err)
			continue
		}

		select {
		case c.results <- result:
		default:
			// Consumer fell behind; drop the oldest result.
			select {
			case <-c.results:
			default:
			}
			c.results <- result
		}
	}
}

// Close shuts the socket down. Idempotent.
func (c *StreamClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.ready = false

	return c.conn.Close()
}
