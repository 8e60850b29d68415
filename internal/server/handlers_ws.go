package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // spectators connect from arbitrary origins
	},
}

// clientMessage is what spectators may send over the stream.
type clientMessage struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

// handleWebSocket upgrades the connection, registers it with the hub,
// and runs the read pump for subscription control messages until the
// spectator disconnects.
func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	connectionID, err := s.hub.Register(conn)
	if err != nil {
		slog.Warn("Failed to register spectator", "error", err)
		return nil
	}
	defer s.hub.Unregister(connectionID)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.handleClientMessage(connectionID, data)
	}

	return nil
}

func (s *Server) handleClientMessage(connectionID uuid.UUID, data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.hub.Send(connectionID, map[string]string{"type": "error", "message": "Invalid JSON format"})
		return
	}

	switch msg.Type {
	case "subscribe":
		target, err := uuid.Parse(msg.PlayerID)
		if err != nil {
			s.hub.Send(connectionID, map[string]string{"type": "error", "message": "Invalid player ID"})
			return
		}
		s.hub.Subscribe(connectionID, target)
	case "unsubscribe":
		s.hub.Unsubscribe(connectionID)
	case "ping":
		s.hub.Send(connectionID, map[string]string{"type": "pong"})
	default:
		s.hub.Send(connectionID, map[string]string{"type": "error", "message": fmt.Sprintf("Unknown message type %q", msg.Type)})
	}
}
