package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// wsMessage is a client frame: {"type": "travel", "payload": {...}}.
type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// wsOut is a server frame, either "state" or "error".
type wsOut struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

const (
	wsReadLimit = 4096
	wsIdle      = 10 * time.Minute
)

// handleWS upgrades to a WebSocket and plays moves until the client leaves.
// The loop is the only writer on the connection.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "game", g.id, "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimit)
	slog.Debug("websocket connected", "game", g.id)

	g.mu.Lock()
	view := s.view(g)
	g.mu.Unlock()
	if err := conn.WriteJSON(wsOut{Type: "state", Payload: view}); err != nil {
		return
	}

	for {
		conn.SetReadDeadline(time.Now().Add(wsIdle))
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read", "game", g.id, "error", err)
			}
			return
		}

		out := s.wsReply(g, msg)
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(out); err != nil {
			slog.Debug("websocket write", "game", g.id, "error", err)
			return
		}
	}
}

func (s *Server) wsReply(g *game, msg wsMessage) wsOut {
	if msg.Type == "state" {
		g.mu.Lock()
		defer g.mu.Unlock()
		return wsOut{Type: "state", Payload: s.view(g)}
	}

	var req moveRequest
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return wsOut{Type: "error", Payload: errorBody{Error: "invalid payload"}}
		}
	}
	view, err := s.play(g, moveKind(msg.Type), req)
	if err != nil {
		return wsOut{Type: "error", Payload: errorBody{Error: err.Error()}}
	}
	return wsOut{Type: "state", Payload: view}
}
