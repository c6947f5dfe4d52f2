package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription confirmation.
	SubscribeTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		PingInterval:     30 * time.Second,
		ReadTimeout:      90 * time.Second,
		WriteTimeout:     10 * time.Second,
		SubscribeTimeout: 10 * time.Second,
	}
}

// WSClientImpl implements WSClient using gorilla/websocket.
//
// Signature subscriptions are one-shot: the node delivers a single
// notification once the signature reaches confirmed commitment and then
// drops the subscription. If the connection is lost, all pending channels
// are closed without a value and the caller falls back to status polling.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig

	conn      *websocket.Conn
	writeMu   sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// pendingSubs maps request ID to channel waiting for subscription ID.
	// subs maps subscription ID to the delivery channel.
	mu          sync.Mutex
	pendingSubs map[uint64]chan int64
	subs        map[int64]chan SignatureResult

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	c := &WSClientImpl{
		endpoint:    endpoint,
		config:      cfg,
		conn:        conn,
		pendingSubs: make(map[uint64]chan int64),
		subs:        make(map[int64]chan SignatureResult),
		done:        make(chan struct{}),
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

// Compile-time interface check.
var _ WSClient = (*WSClientImpl)(nil)

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type wsMessage struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Method string          `json:"method"`
	Params *wsNotifyParams `json:"params"`
	Error  *rpcError       `json:"error"`
}

type wsNotifyParams struct {
	Subscription int64 `json:"subscription"`
	Result       struct {
		Context struct {
			Slot int64 `json:"slot"`
		} `json:"context"`
		Value struct {
			Err interface{} `json:"err"`
		} `json:"value"`
	} `json:"result"`
}

// SubscribeSignature subscribes to the confirmation of one signature.
func (c *WSClientImpl) SubscribeSignature(ctx context.Context, signature string) (<-chan SignatureResult, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("client closed")
	}

	reqID := c.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "signatureSubscribe",
		Params: []interface{}{
			signature,
			map[string]string{"commitment": "confirmed"},
		},
	}

	subIDCh := make(chan int64, 1)
	c.mu.Lock()
	c.pendingSubs[reqID] = subIDCh
	c.mu.Unlock()

	if err := c.writeJSON(req); err != nil {
		c.mu.Lock()
		delete(c.pendingSubs, reqID)
		c.mu.Unlock()
		return nil, fmt.Errorf("send subscribe request: %w", err)
	}

	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pendingSubs, reqID)
		c.mu.Unlock()
		return nil, ctx.Err()
	case <-time.After(c.config.SubscribeTimeout):
		c.mu.Lock()
		delete(c.pendingSubs, reqID)
		c.mu.Unlock()
		return nil, fmt.Errorf("subscribe confirmation timeout")
	case subID, ok := <-subIDCh:
		if !ok {
			return nil, fmt.Errorf("connection lost during subscribe")
		}
		ch := make(chan SignatureResult, 1)
		c.mu.Lock()
		c.subs[subID] = ch
		c.mu.Unlock()
		return ch, nil
	}
}

func (c *WSClientImpl) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return c.conn.WriteJSON(v)
}

// readLoop dispatches subscription confirmations and notifications until the
// connection fails or the client is closed.
func (c *WSClientImpl) readLoop() {
	defer c.wg.Done()
	defer c.failAll()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch {
		case msg.Method == "signatureNotification" && msg.Params != nil:
			c.mu.Lock()
			ch, ok := c.subs[msg.Params.Subscription]
			delete(c.subs, msg.Params.Subscription)
			c.mu.Unlock()
			if ok {
				ch <- SignatureResult{
					Slot: msg.Params.Result.Context.Slot,
					Err:  msg.Params.Result.Value.Err,
				}
				close(ch)
			}
		case msg.ID != 0:
			c.mu.Lock()
			pending, ok := c.pendingSubs[msg.ID]
			delete(c.pendingSubs, msg.ID)
			c.mu.Unlock()
			if !ok {
				continue
			}
			if msg.Error != nil {
				close(pending)
				continue
			}
			var subID int64
			if err := json.Unmarshal(msg.Result, &subID); err != nil {
				close(pending)
				continue
			}
			pending <- subID
		}
	}
}

// pingLoop keeps the connection alive.
func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// failAll closes every pending and active subscription channel without a
// value, signalling callers to fall back to polling.
func (c *WSClientImpl) failAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, pending := range c.pendingSubs {
		close(pending)
		delete(c.pendingSubs, id)
	}
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
}

// Close closes the WebSocket connection.
func (c *WSClientImpl) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)
	err := c.conn.Close()
	c.wg.Wait()
	return err
}
