package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultCLOBWSURL is the public CLOB market-channel WebSocket endpoint.
const DefaultCLOBWSURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

// WSConfig configures WebSocket client behavior.
type WSConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// TradeEvent is one live trade from the CLOB market channel. The public
// feed carries price and size but not counterparty addresses, so live
// events inform monitoring rather than dataset builds.
type TradeEvent struct {
	EventType string `json:"event_type"`
	AssetID   string `json:"asset_id"`
	Market    string `json:"market"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	Side      string `json:"side"`
	Timestamp string `json:"timestamp"`
}

// subscribeMessage is the market-channel subscription request.
type subscribeMessage struct {
	AssetIDs []string `json:"assets_ids"`
	Type     string   `json:"type"`
}

// WSTradeClient streams live trades for a set of outcome tokens,
// reconnecting with exponential backoff on connection loss.
type WSTradeClient struct {
	endpoint string
	config   WSConfig
	assetIDs []string

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	events chan TradeEvent

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWSTradeClient connects to the endpoint and subscribes to trades for
// the given outcome token ids. Events are delivered on Events() until
// Close is called.
func NewWSTradeClient(ctx context.Context, endpoint string, assetIDs []string, config *WSConfig) (*WSTradeClient, error) {
	if endpoint == "" {
		endpoint = DefaultCLOBWSURL
	}
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	c := &WSTradeClient{
		endpoint: endpoint,
		config:   cfg,
		assetIDs: assetIDs,
		events:   make(chan TradeEvent, 256),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

// Events returns the live trade stream. The channel is closed after Close.
func (c *WSTradeClient) Events() <-chan TradeEvent {
	return c.events
}

// Close shuts down the connection and the background goroutines.
func (c *WSTradeClient) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)

	c.connMu.Lock()
	var err error
	if c.conn != nil {
		err = c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	close(c.events)
	return err
}

// connect dials the endpoint and sends the subscription message.
func (c *WSTradeClient) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.config.WriteTimeout}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.endpoint, err)
	}

	sub := subscribeMessage{AssetIDs: c.assetIDs, Type: "market"}
	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("subscribe: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return nil
}

// readLoop reads messages and dispatches trade events, reconnecting on error.
func (c *WSTradeClient) readLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()
		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.reconnect()
			continue
		}

		c.dispatch(data)
	}
}

// dispatch parses one frame. The feed sends both bare objects and arrays.
func (c *WSTradeClient) dispatch(data []byte) {
	var events []TradeEvent
	if err := json.Unmarshal(data, &events); err != nil {
		var single TradeEvent
		if err := json.Unmarshal(data, &single); err != nil {
			return
		}
		events = []TradeEvent{single}
	}

	for _, ev := range events {
		if ev.EventType != "last_trade_price" && ev.EventType != "trade" {
			continue
		}
		select {
		case c.events <- ev:
		case <-c.done:
			return
		default:
			// Slow consumer: drop rather than block the read loop
		}
	}
}

// reconnect re-dials with exponential backoff until success or shutdown.
func (c *WSTradeClient) reconnect() {
	delay := c.config.ReconnectDelay
	for {
		select {
		case <-c.done:
			return
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.config.WriteTimeout)
		err := c.connect(ctx)
		cancel()
		if err == nil {
			return
		}

		delay *= 2
		if delay > c.config.MaxReconnectDelay {
			delay = c.config.MaxReconnectDelay
		}
	}
}

// pingLoop keeps the connection alive.
func (c *WSTradeClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			conn := c.conn
			c.connMu.Unlock()
			if conn == nil {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			conn.WriteMessage(websocket.PingMessage, nil)
		}
	}
}
