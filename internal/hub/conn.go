package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c-johnson06/optionSentinel/internal/domain/models"
	"github.com/c-johnson06/optionSentinel/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 16
)

type connState int

const (
	stateConnecting connState = iota
	stateOpen
	stateClosed
)

// Conn adapts one websocket to the hub. It moves through an explicit
// lifecycle: connecting, open, closed. Subscription changes are only legal
// while open, and the closed transition returns the connection's tickers to
// the registry exactly once.
type Conn struct {
	ws  *websocket.Conn
	hub *Hub
	log *logger.Logger

	send chan []byte
	done chan struct{}

	mu    sync.Mutex
	state connState

	closeOnce sync.Once
}

func NewConn(ws *websocket.Conn, h *Hub, log *logger.Logger) *Conn {
	if log == nil {
		log = logger.Nop()
	}
	return &Conn{
		ws:    ws,
		hub:   h,
		log:   log,
		send:  make(chan []byte, sendBuffer),
		done:  make(chan struct{}),
		state: stateConnecting,
	}
}

// Start transitions the connection to open, registers it with the hub, and
// launches the pumps.
func (c *Conn) Start() {
	c.mu.Lock()
	if c.state != stateConnecting {
		c.mu.Unlock()
		return
	}
	c.state = stateOpen
	c.mu.Unlock()

	c.hub.Register(c)
	go c.writePump()
	go c.readPump()
}

// Send queues a message without blocking. It reports false when the
// connection is gone or its buffer is full; the hub skips such viewers.
func (c *Conn) Send(b []byte) bool {
	c.mu.Lock()
	open := c.state == stateOpen
	c.mu.Unlock()
	if !open {
		return false
	}

	select {
	case c.send <- b:
		return true
	case <-c.done:
		return false
	default:
		// slow consumer, drop rather than stall the broadcast
		return false
	}
}

func (c *Conn) readPump() {
	defer c.close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}

		var msg models.ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.sendError("invalid message")
			continue
		}

		switch msg.Type {
		case models.MsgTypeSubscribe:
			c.hub.Subscribe(c, msg)
		default:
			c.sendError("unknown message type: " + msg.Type)
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, nil)
			return
		case b := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

// close performs the open->closed transition: unregister from the hub (which
// returns the contributed tickers to the registry) and stop the pumps. Safe
// to call from either pump.
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.state = stateClosed
		c.mu.Unlock()

		close(c.done)
		c.hub.Unregister(c)
		c.log.Debug("viewer disconnected")
	})
}

func (c *Conn) sendError(msg string) {
	b, err := json.Marshal(models.ErrorMessage{Type: models.MsgTypeError, Message: msg})
	if err != nil {
		return
	}
	select {
	case c.send <- b:
	case <-c.done:
	default:
	}
}
