// Package sse serves the merged chat stream as Server-Sent Events, for viewers that
// only need to read chat and can't (or don't want to) hold open a websocket.
package sse

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golden-vcr/chatrelay/internal/relay"
)

// keepaliveInterval is how long a connection may sit idle before we write a comment
// to keep intermediate proxies from timing it out
const keepaliveInterval = 30 * time.Second

// Registrar is the subset of the relay hub that the handler needs
type Registrar interface {
	Register(s relay.Subscriber)
	Unregister(s relay.Subscriber)
}

// Handler is an HTTP handler that serves chat events using Server-Sent Events
type Handler struct {
	ctx    context.Context
	logger *slog.Logger
	hub    Registrar
}

// NewHandler initializes an SSE handler that subscribes each HTTP connection to the
// given hub for as long as that connection remains open
func NewHandler(ctx context.Context, logger *slog.Logger, hub Registrar) *Handler {
	return &Handler{
		ctx:    ctx,
		logger: logger,
		hub:    hub,
	}
}

// ServeHTTP responds by opening a long-lived HTTP connection to which events will be
// written as the hub broadcasts them, formatted as text/event-stream messages with
// 'data' consisting of a JSON-encoded chat.Event
func (h *Handler) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	// If a content-type is explicitly requested, require that it's text/event-stream
	accept := req.Header.Get("accept")
	if accept != "" && accept != "*/*" && !strings.HasPrefix(accept, "text/event-stream") {
		message := fmt.Sprintf("content-type %s is not supported", accept)
		http.Error(res, message, http.StatusBadRequest)
		return
	}

	// Keep the connection alive and open a text/event-stream response body
	res.Header().Set("content-type", "text/event-stream")
	res.Header().Set("cache-control", "no-cache")
	res.Header().Set("connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	// Send an initial keepalive message so that proxies (e.g. Cloudflare) start
	// streaming the response immediately
	res.Write([]byte(":\n\n"))
	res.(http.Flusher).Flush()

	sub := newSubscription()
	h.hub.Register(sub)
	defer h.hub.Unregister(sub)

	logger := h.logger.With("remoteAddr", req.RemoteAddr)
	logger.Info("[SSE] opened connection")
	for {
		select {
		case <-time.After(keepaliveInterval):
			res.Write([]byte(":\n\n"))
			res.(http.Flusher).Flush()
		case out := <-sub.ch:
			fmt.Fprintf(res, "data: %s\n\n", out.JSON)
			res.(http.Flusher).Flush()
		case <-sub.done:
			logger.Warn("[SSE] connection dropped by hub")
			return
		case <-h.ctx.Done():
			logger.Info("[SSE] server is shutting down; abandoning connection")
			return
		case <-req.Context().Done():
			logger.Info("[SSE] connection closed")
			return
		}
	}
}

// subscription buffers events for a single SSE connection
type subscription struct {
	ch   chan *relay.Outbound
	done chan struct{}
	once sync.Once
}

func newSubscription() *subscription {
	return &subscription{
		ch:   make(chan *relay.Outbound, 32),
		done: make(chan struct{}),
	}
}

func (s *subscription) Deliver(out *relay.Outbound) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.ch <- out:
		return true
	default:
		return false
	}
}

func (s *subscription) Close() {
	s.once.Do(func() { close(s.done) })
}
