package handler

import (
	"encoding/json"
	"net/http"

	"webserver/internal/fanout"

	"github.com/gorilla/websocket"
)

// upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all
// origins, matching the teacher's viewer-facing upgrader.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Live handles GET /live: upgrades to a WebSocket, registers the
// connection with the fan-out hub, pushes an initial_state snapshot of
// every zone's current occupancy, then relays hub messages to the
// connection until it closes.
func (s *Server) Live(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Error("live: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	client := s.Hub.Register()
	defer s.Hub.Unregister(client)

	s.Logger.Info("live: viewer connected")

	initial, err := json.Marshal(fanout.Message{
		Type:    fanout.TypeInitialState,
		Payload: s.Occupancy.All(),
	})
	if err == nil {
		if werr := conn.WriteMessage(websocket.TextMessage, initial); werr != nil {
			return
		}
	}

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for data := range client.Send() {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.Logger.Info("live: viewer disconnected: %v", err)
			return
		}
	}
}
