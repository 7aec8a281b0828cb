package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dkoutsos/lexroom/internal/auth"
	"github.com/dkoutsos/lexroom/internal/llm"
	"github.com/dkoutsos/lexroom/internal/protocol"
	"github.com/dkoutsos/lexroom/internal/session"
)

type wsClientMessage struct {
	Message string `json:"message"`
}

type wsErrorEvent struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type wsToolActivityEvent struct {
	Type  string   `json:"type"`
	Tools []string `json:"tools"`
}

// handleChatWS serves the streaming variant of /v1/chat: one JSON message in,
// one answer out, over a single long-lived connection bound to one session.
// The connection holds the session for its whole lifetime, so a parallel
// HTTP acquire sees it as busy.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing identity")
		return
	}

	sess, status, code, err := s.acquireSession(identity.Subject, strings.TrimSpace(r.URL.Query().Get("session_id")))
	if err != nil {
		respondError(w, status, code, err.Error())
		return
	}
	defer s.sessions.Release(sess.ID)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	// Tell the client which session it is attached to before the first turn.
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(map[string]string{"type": "session", "session_id": sess.ID}); err != nil {
		return
	}

	for {
		var msg wsClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		if strings.TrimSpace(msg.Message) == "" {
			s.writeWSError(conn, "invalid_request", "message is required")
			continue
		}

		prevTurns := len(sess.Turns)
		result, err := s.orchestrator.HandleMessage(r.Context(), sess, msg.Message)
		if err != nil {
			if errors.Is(err, llm.ErrGatewayTimeout) {
				s.writeWSError(conn, "gateway_timeout", "language model did not respond in time")
			} else {
				s.writeWSError(conn, "llm_unavailable", "language model request failed")
			}
			continue
		}

		// Later messages must see this turn; refresh the held snapshot.
		sess, err = s.refreshSession(sess)
		if err != nil {
			return
		}

		if used := toolsUsed(sess.Turns[prevTurns:]); len(used) > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(wsToolActivityEvent{Type: "tool_activity", Tools: used}); err != nil {
				return
			}
		}

		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(result); err != nil {
			return
		}
	}
}

func toolsUsed(turns []protocol.Turn) []string {
	var names []string
	for _, turn := range turns {
		if turn.Role == protocol.RoleToolCall {
			names = append(names, turn.ToolName)
		}
	}
	return names
}

// refreshSession reloads the turn history of a session the connection still
// holds acquired.
func (s *Server) refreshSession(held session.Session) (session.Session, error) {
	fresh, err := s.sessions.Snapshot(held.ID, held.Subject)
	if err != nil {
		return session.Session{}, err
	}
	return fresh, nil
}

func (s *Server) writeWSError(conn *websocket.Conn, code, message string) {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	_ = conn.WriteJSON(wsErrorEvent{Type: "error", Code: code, Error: message})
}
