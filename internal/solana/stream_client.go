package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrStreamClosed is returned by Next after Close or a terminal read error.
var ErrStreamClosed = errors.New("stream closed")

// StreamConfig configures stream client behavior.
type StreamConfig struct {
	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration
	// IdleTimeout is the maximum silence on the connection before it is
	// declared dead. Provider keepalives reset it.
	IdleTimeout time.Duration
	// WriteTimeout bounds the subscription frame send.
	WriteTimeout time.Duration
	// PingInterval is the interval for outbound ping frames.
	PingInterval time.Duration
}

// DefaultStreamConfig returns default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		HandshakeTimeout: 10 * time.Second,
		IdleTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
		PingInterval:     30 * time.Second,
	}
}

// TransactionFilter restricts a transactionSubscribe stream.
type TransactionFilter struct {
	// AccountInclude limits delivery to transactions touching these accounts.
	AccountInclude []string
	// AccountExclude drops transactions touching these accounts.
	AccountExclude []string
}

// StreamClient owns a single long-lived transactionSubscribe connection.
// It is the session's only connection owner: one goroutine calls Next until
// it returns an error, at which point the session is over. The client never
// reconnects on its own; restart policy belongs to the caller.
type StreamClient struct {
	conn   *websocket.Conn
	config StreamConfig

	mu     sync.Mutex // guards writes and close
	closed bool
}

// Connect dials the endpoint and sends the subscription frame. Failure to
// send the frame is fatal for the session and closes the connection.
func Connect(ctx context.Context, endpoint string, filter TransactionFilter, config *StreamConfig) (*StreamClient, error) {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}

	dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", endpoint, err)
	}

	c := &StreamClient{conn: conn, config: cfg}

	conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
	if err := conn.WriteJSON(subscriptionFrame(filter)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send subscription frame: %w", err)
	}

	// Pongs and provider keepalives both count as liveness.
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(cfg.IdleTimeout))
	})

	go c.pingLoop()

	return c, nil
}

// subscriptionFrame builds the one-shot transactionSubscribe request:
// non-failed transactions, full detail, jsonParsed encoding, processed
// commitment. Processed is deliberate: copy trades race the original.
func subscriptionFrame(filter TransactionFilter) wsRequest {
	f := map[string]interface{}{
		"failed": false,
	}
	if len(filter.AccountInclude) > 0 {
		f["accountInclude"] = filter.AccountInclude
	}
	if len(filter.AccountExclude) > 0 {
		f["accountExclude"] = filter.AccountExclude
	}

	return wsRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "transactionSubscribe",
		Params: []interface{}{
			f,
			map[string]interface{}{
				"commitment":                     "processed",
				"encoding":                       "jsonParsed",
				"transactionDetails":             "full",
				"maxSupportedTransactionVersion": 0,
			},
		},
	}
}

// Next blocks until the next raw message arrives or the connection dies.
// Idle timeout, transport errors, and context cancellation all surface as a
// terminal error: callers must treat any error as end of session.
func (c *StreamClient) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Per-call abort: a cancelled context unblocks the pending read by
	// forcing the deadline into the past.
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetReadDeadline(time.Unix(0, 0))
	})
	defer stop()

	c.conn.SetReadDeadline(time.Now().Add(c.config.IdleTimeout))
	_, message, err := c.conn.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.Close()
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("stream idle for %s: %w", c.config.IdleTimeout, ErrStreamClosed)
		}
		return nil, fmt.Errorf("stream read: %w", err)
	}

	return message, nil
}

// Close terminates the connection. Safe to call more than once.
func (c *StreamClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

// pingLoop keeps the connection alive until it is closed. Write errors are
// ignored: the pending read will observe the dead connection.
func (c *StreamClient) pingLoop() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
		c.conn.WriteMessage(websocket.PingMessage, nil)
		c.mu.Unlock()
	}
}

// wsRequest is a JSON-RPC 2.0 request frame.
type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// SubscribeAck is the provider's confirmation of a subscription request.
type SubscribeAck struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  int64  `json:"result"`
}

// ParseSubscribeAck reports whether the message is a subscription ack.
func ParseSubscribeAck(message []byte) (int64, bool) {
	var ack SubscribeAck
	if err := json.Unmarshal(message, &ack); err != nil {
		return 0, false
	}
	if ack.Result == 0 {
		return 0, false
	}
	return ack.Result, true
}
