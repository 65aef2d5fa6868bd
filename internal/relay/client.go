package relay

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message
	writeWait = 10 * time.Second

	// Time allowed to read next pong message
	pongWait = 60 * time.Second

	// Send pings with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Max message size
	maxMessageSize = 64 * 1024

	// Number of outgoing messages a client may fall behind by before it's dropped
	sendBufferSize = 256
)

// Role determines which messages a websocket client may send to the hub, and whether
// it receives chat events
type Role string

const (
	// RoleViewer clients receive chat events and may request replies
	RoleViewer Role = "viewer"
	// RoleIngest clients feed scraped YouTube chat into the hub
	RoleIngest Role = "ingest"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Viewer front-ends are served from other origins, e.g. OBS browser sources
		return true
	},
}

// Client is a single websocket connection to the hub
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	role   Role
	logger *slog.Logger

	send chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn, role Role, logger *slog.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		role:   role,
		logger: logger,
		send:   make(chan []byte, sendBufferSize),
	}
}

// Deliver queues a chat event to be written to the websocket, returning false if the
// client's buffer is full
func (c *Client) Deliver(out *Outbound) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- out.Envelope:
		return true
	default:
		return false
	}
}

// Close stops the write pump, which sends a close frame and closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump pumps messages from the websocket to the hub
func (c *Client) ReadPump() {
	defer func() {
		if c.role == RoleViewer {
			c.hub.Unregister(c)
		} else {
			c.Close()
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("[CLIENT] Unexpected close", "error", err)
			}
			break
		}

		c.handleClientMessage(message)
	}
}

// WritePump pumps messages from the hub to the websocket
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				c.logger.Error("[CLIENT] Failed to get writer", "error", err)
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				c.logger.Error("[CLIENT] Failed to close writer", "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Error("[CLIENT] Failed to send ping", "error", err)
				return
			}
		}
	}
}

func (c *Client) handleClientMessage(message []byte) {
	envelope, err := Decode(message)
	if err != nil {
		c.logger.Warn("[CLIENT] Ignoring malformed message", "error", err)
		return
	}

	switch {
	case c.role == RoleViewer && envelope.Type == MessageTypeSend:
		req, err := DecodeData[SendRequest](envelope)
		if err != nil {
			c.logger.Warn("[CLIENT] Ignoring invalid send request", "error", err)
			return
		}
		// Sends may take a while; keep reading in the meantime
		go c.hub.Send(context.Background(), req)

	case c.role == RoleIngest && envelope.Type == MessageTypeScrapeMessage:
		msg, err := DecodeData[ScrapedMessage](envelope)
		if err != nil {
			c.logger.Warn("[CLIENT] Ignoring invalid scraped message", "error", err)
			return
		}
		c.hub.HandleScrapeMessage(msg)

	case c.role == RoleIngest && envelope.Type == MessageTypeScrapeSession:
		session, err := DecodeData[ScrapeSession](envelope)
		if err != nil {
			c.logger.Warn("[CLIENT] Ignoring invalid scrape session", "error", err)
			return
		}
		c.hub.HandleScrapeSession(session)

	default:
		c.logger.Warn("[CLIENT] Unexpected message type", "type", envelope.Type, "role", c.role)
	}
}
