package ws

import (
	"net/http"

	"github.com/parentingo/parentingo/internal/service"
	"nhooyr.io/websocket"
)

// ServeWS returns an HTTP handler that upgrades to WebSocket.
// Auth is done via ?token=xxx query param (WebSocket can't send headers).
// origins lists the accepted Origin patterns; "*" accepts any origin.
func ServeWS(hub *Hub, auth service.Authenticator, origins []string) http.HandlerFunc {
	opts := &websocket.AcceptOptions{OriginPatterns: origins}
	for _, o := range origins {
		if o == "*" {
			opts = &websocket.AcceptOptions{InsecureSkipVerify: true}
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		user, _, err := auth.Authenticate(r.Context(), tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, opts)
		if err != nil {
			hub.logger.WithError(err).Warn("accept failed")
			return
		}

		client := NewClient(hub, conn, user.ID)
		select {
		case hub.register <- client:
		case <-hub.done:
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		go client.WritePump(r.Context())
		client.ReadPump(r.Context())
	}
}
