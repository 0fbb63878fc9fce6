package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const ( // ping pong (2-way heartbeat) to keep connection alive
	WriteWait      = 10 * time.Second    // max time to write a message to the peer
	PongWait       = 60 * time.Second    // no pong within this window = dead connection
	PingPeriod     = (PongWait * 9) / 10 // must be shorter than PongWait
	MaxMessageSize = 512                 // maximum inbound frame size
	SendBufferSize = 32                  // queued outbound frames before Send reports full
)

// Client is one upgraded WebSocket connection owned by a user.
// It implements Conn; frames queued through Send are written by WritePump.
type Client struct {
	id      string
	UserID  int64
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
}

func NewClient(userID int64, conn *websocket.Conn, logger *zap.Logger) *Client {
	id := uuid.New().String()
	return &Client{
		id:      id,
		UserID:  userID,
		conn:    conn,
		send:    make(chan []byte, SendBufferSize),
		limiter: rate.NewLimiter(10, 20), // 10 inbound frames/sec, burst 20
		logger: logger.With(
			zap.String("conn_id", id),
			zap.Int64("user_id", userID),
		),
	}
}

func (c *Client) ID() string { return c.id }

// Send queues data without blocking.
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close stops the write pump, which then closes the socket. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	return nil
}

// rateLimitFrame answers an inbound frame over the client's rate limit.
var rateLimitFrame, _ = NewErrorMessage("rate limit exceeded").ToJSON()

// ReadPump reads and discards client frames, keeping the read deadline
// alive through pongs. Frames over the rate limit are answered with an
// error frame. It returns when the peer goes away.
func (c *Client) ReadPump(registry *Registry) {
	defer func() {
		registry.Unregister(c.UserID, c)
		_ = c.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(PongWait))
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		if !c.limiter.Allow() {
			c.logger.Debug("inbound frame rate limit exceeded")
			_ = c.Send(rateLimitFrame)
		}
	}
}

// WritePump drains the send queue to the socket and sends periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func deadline() time.Time {
	return time.Now().Add(WriteWait)
}
