package httpapi

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/example/taxifare/internal/models"
	"github.com/example/taxifare/internal/session"
)

// clickMessage is one map click sent by the picker.
type clickMessage struct {
	Role string  `json:"role"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

type wsError struct {
	Error string `json:"error"`
}

// handleMapWS streams map clicks for one session. Every click is committed to
// the session coordinates and answered with the redrawn picker.
func (s *Server) handleMapWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["session_id"]
	if _, err := s.Form.Store.Load(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "session_id", id, "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(4096)

	for {
		var msg clickMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "session_id", id, "error", err)
			}
			return
		}
		role, err := models.ParseRole(msg.Role)
		if err != nil {
			if err := conn.WriteJSON(wsError{Error: err.Error()}); err != nil {
				return
			}
			continue
		}
		view, err := s.Form.Click(r.Context(), id, role, models.Coord{Lat: msg.Lat, Lon: msg.Lng})
		if err != nil {
			if werr := conn.WriteJSON(wsError{Error: err.Error()}); werr != nil {
				return
			}
			if errors.Is(err, session.ErrNotFound) {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session closed"))
				return
			}
			continue
		}
		if err := conn.WriteJSON(view); err != nil {
			s.logger.Warn("websocket write failed", "session_id", id, "error", err)
			return
		}
	}
}
