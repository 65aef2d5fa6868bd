package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/golden-vcr/chatrelay/internal/relay"
)

const writeWait = 10 * time.Second

// Forwarder sends scraped messages to the relay hub's ingest endpoint over a
// websocket. The connection is opened lazily and reopened after any failure; each
// new connection starts by announcing which video is being scraped.
type Forwarder struct {
	logger  *slog.Logger
	hubUrl  string
	videoId string
	dialer  *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewForwarder(logger *slog.Logger, hubUrl string, videoId string) *Forwarder {
	return &Forwarder{
		logger:  logger,
		hubUrl:  hubUrl,
		videoId: videoId,
		dialer:  websocket.DefaultDialer,
	}
}

// Connect opens a connection to the hub if one isn't already open
func (f *Forwarder) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.connect(ctx)
	return err
}

// Emit sends a single message to the hub, reconnecting once if the existing
// connection has gone bad
func (f *Forwarder) Emit(ctx context.Context, msg *relay.ScrapedMessage) error {
	payload, err := relay.Encode(relay.MessageTypeScrapeMessage, msg)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for attempt := 0; ; attempt++ {
		conn, err := f.connect(ctx)
		if err != nil {
			return err
		}
		err = write(conn, payload)
		if err == nil {
			return nil
		}
		f.drop(conn)
		if attempt > 0 {
			return fmt.Errorf("failed to send message to hub: %w", err)
		}
		f.logger.Warn("Lost connection to hub; reconnecting", "error", err)
	}
}

// Close closes the current connection, if any
func (f *Forwarder) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		f.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		f.drop(f.conn)
	}
}

// connect must be called with mu held
func (f *Forwarder) connect(ctx context.Context) (*websocket.Conn, error) {
	if f.conn != nil {
		return f.conn, nil
	}

	conn, _, err := f.dialer.DialContext(ctx, f.hubUrl, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to hub at %s: %w", f.hubUrl, err)
	}
	announcement, err := relay.Encode(relay.MessageTypeScrapeSession, &relay.ScrapeSession{VideoID: f.videoId})
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := write(conn, announcement); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to announce scrape session: %w", err)
	}
	f.logger.Info("Connected to hub", "url", f.hubUrl)

	f.conn = conn
	go f.readUntilClosed(conn)
	return conn, nil
}

// readUntilClosed services control frames (pings and closes) from the hub; once the
// connection fails, it's discarded so the next Emit will reconnect
func (f *Forwarder) readUntilClosed(conn *websocket.Conn) {
	for {
		if _, _, err := conn.NextReader(); err != nil {
			f.mu.Lock()
			f.drop(conn)
			f.mu.Unlock()
			return
		}
	}
}

// drop must be called with mu held
func (f *Forwarder) drop(conn *websocket.Conn) {
	conn.Close()
	if f.conn == conn {
		f.conn = nil
	}
}

func write(conn *websocket.Conn, payload []byte) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, payload)
}
