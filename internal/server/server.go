package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/golden-vcr/chatrelay/internal/relay"
	"github.com/golden-vcr/chatrelay/internal/sse"
)

// maxSendBodySize caps the size of a POST /send request body
const maxSendBodySize = 64 * 1024

type Server struct {
	http.Handler

	ctx    context.Context
	logger *slog.Logger
	hub    *relay.Hub
}

// New builds the HTTP API for the relay:
//
//	GET  /ws      viewer websocket: receives chat events, may send replies
//	GET  /ingest  scraper websocket: feeds scraped YouTube chat into the hub
//	GET  /chat    read-only chat stream via Server-Sent Events
//	POST /send    posts a reply, as with a websocket 'send' message
//	GET  /status  health status
//	GET  /metrics Prometheus metrics
func New(ctx context.Context, logger *slog.Logger, hub *relay.Hub, status http.Handler, allowedOrigins []string) *Server {
	s := &Server{
		ctx:    ctx,
		logger: logger,
		hub:    hub,
	}

	r := mux.NewRouter()
	r.Path("/ws").Methods("GET").HandlerFunc(relay.ServeWS(hub, logger, relay.RoleViewer))
	r.Path("/ingest").Methods("GET").HandlerFunc(relay.ServeWS(hub, logger, relay.RoleIngest))
	r.Path("/chat").Methods("GET").Handler(sse.NewHandler(ctx, logger, hub))
	r.Path("/send").Methods("POST").HandlerFunc(s.handleSend)
	r.Path("/status").Methods("GET").Handler(status)
	r.Path("/metrics").Methods("GET").Handler(promhttp.Handler())

	s.Handler = cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(r)
	return s
}

// handleSend accepts a SendRequest and dispatches it in the background. The response
// is 202 regardless of whether delivery to any platform succeeds.
func (s *Server) handleSend(res http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(io.LimitReader(req.Body, maxSendBodySize))
	if err != nil {
		http.Error(res, "failed to read request body", http.StatusBadRequest)
		return
	}

	sendRequest, err := relay.DecodeData[relay.SendRequest](&relay.Envelope{
		Type: relay.MessageTypeSend,
		Data: body,
	})
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}

	go s.hub.Send(context.WithoutCancel(s.ctx), sendRequest)
	res.WriteHeader(http.StatusAccepted)
}
