package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrConnectionNotOpen = errors.New("not connected")

// IrcConnection is the subset of the go-twitch-irc client that's needed to manage the
// lifetime of a connection
type IrcConnection interface {
	OnConnect(func())
	Connect() error
	Disconnect() error
}

// Connection tracks whether an IRC client is currently connected, recording the most
// recent error if the connection was lost
type Connection struct {
	client IrcConnection

	connectErrChan chan error

	mu      sync.Mutex
	open    bool
	lastErr error
}

func NewConnection(client IrcConnection) *Connection {
	return &Connection{
		client:         client,
		connectErrChan: make(chan error, 1),
	}
}

// GetStatus returns nil if the connection is open and healthy, or an error describing
// why it isn't
func (c *Connection) GetStatus() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastErr == nil && !c.open {
		return ErrConnectionNotOpen
	}
	return c.lastErr
}

// Open connects the client, blocking until the connection is established, the
// connection attempt fails, or ctx is done
func (c *Connection) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled before connecting: %v", err)
	}

	// Signal when the connection succeeds, limited to the scope of this function
	connected := make(chan struct{}, 1)
	c.client.OnConnect(func() {
		select {
		case connected <- struct{}{}:
		default:
		}
	})
	defer c.client.OnConnect(nil)

	// Connect() blocks for as long as the connection is open, so run it in a separate
	// goroutine and signal its return value via the error channel
	go func() {
		c.connectErrChan <- c.client.Connect()
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("context canceled while waiting to connect: %v", ctx.Err())
	case err := <-c.connectErrChan:
		// Connect returned before OnConnect fired, so the attempt failed outright
		if err == nil {
			err = ErrConnectionNotOpen
		}
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return err
	case <-connected:
	}

	c.mu.Lock()
	c.open = true
	c.lastErr = nil
	c.mu.Unlock()

	// Once Connect() eventually returns, the connection is gone: record why
	go func() {
		err := <-c.connectErrChan
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.open && err != nil {
			c.lastErr = err
		}
		c.open = false
	}()
	return nil
}

// Close disconnects the client
func (c *Connection) Close() error {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return ErrConnectionNotOpen
	}
	c.open = false
	c.mu.Unlock()
	return c.client.Disconnect()
}
