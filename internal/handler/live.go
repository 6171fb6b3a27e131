package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fearless-dhbw/img-classification/internal/logger"
	"github.com/fearless-dhbw/img-classification/internal/service"
)

// Upgrader upgrades HTTP connections to WebSocket. Origin checks are left
// to the CORS configuration.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveWebsocketHandler streams classification events to a connected client
// until it disconnects.
func LiveWebsocketHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hub := manager.GetWebsocketService()
		if hub == nil {
			writeError(w, logger, http.StatusNotFound, "Live feed is disabled")
			return
		}

		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		// The server's read timeout would otherwise end the stream.
		connection.SetReadDeadline(time.Time{})

		hub.Register(connection)
		defer hub.Unregister(connection)

		logger.Info("Live client connected from %s", r.RemoteAddr)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Live client disconnected")
				} else {
					logger.Warning("Live client disconnected with error: %v", err)
				}
				return
			}
		}
	}
}
