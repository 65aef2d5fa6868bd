package relay

import (
	"log/slog"
	"net/http"
)

// ServeWS returns a handler that upgrades requests to websocket connections with the
// given role. Viewer connections are registered with the hub immediately, so they'll
// receive every chat event broadcast from then on.
func ServeWS(hub *Hub, logger *slog.Logger, role Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("[WS] Upgrade failed", "role", role, "error", err)
			return
		}

		client := newClient(hub, conn, role, logger.With("role", role, "remoteAddr", r.RemoteAddr))
		if role == RoleViewer {
			hub.Register(client)
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
