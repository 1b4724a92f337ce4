package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/taxifare/internal/form"
	"github.com/example/taxifare/internal/location"
	"github.com/example/taxifare/internal/logging"
	"github.com/example/taxifare/internal/models"
	"github.com/example/taxifare/internal/session"
)

var errInvalidInput = errors.New("invalid input")

// Prefilled values of the two address fields.
const (
	DefaultPickupAddress  = "Barclays Center"
	DefaultDropoffAddress = "Madison Square Garden"
)

type Server struct {
	Form *form.Service

	logger   *slog.Logger
	mux      *mux.Router
	handler  http.Handler
	upgrader websocket.Upgrader
	now      func() time.Time
}

// NewServer wires routes and middleware around the form service. Requests from
// origins outside allowedOrigins are refused by CORS and the WebSocket
// handshake; "*" allows any origin.
func NewServer(f *form.Service, logger *slog.Logger, allowedOrigins []string) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{Form: f, logger: logger, mux: mux.NewRouter(), now: time.Now}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return originAllowed(allowedOrigins, r.Header.Get("Origin")) },
	}
	s.registerMiddleware()
	s.routes()
	s.handler = handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Request-ID"}),
		handlers.ExposedHeaders([]string{"X-Request-ID"}),
	)(s.mux)
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/sessions", s.handleCreateSession).Methods(http.MethodPost)
	s.mux.HandleFunc("/api/v1/sessions/{session_id}", s.handleDeleteSession).Methods(http.MethodDelete)
	s.mux.HandleFunc("/api/v1/sessions/{session_id}/render", s.handleRender).Methods(http.MethodPost)
	s.mux.HandleFunc("/ws/sessions/{session_id}/map", s.handleMapWS).Methods(http.MethodGet)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); w.Write([]byte("ok")) }).Methods(http.MethodGet)
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.Form.OpenSession(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Form.CloseSession(r.Context(), mux.Vars(r)["session_id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type manualInput struct {
	PickupLatitude   float64 `json:"pickup_latitude"`
	PickupLongitude  float64 `json:"pickup_longitude"`
	DropoffLatitude  float64 `json:"dropoff_latitude"`
	DropoffLongitude float64 `json:"dropoff_longitude"`
}

type addressInput struct {
	Pickup  string `json:"pickup"`
	Dropoff string `json:"dropoff"`
}

type clickPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type mapInput struct {
	Role  string      `json:"role"`
	Click *clickPoint `json:"click"`
}

type renderRequest struct {
	Date           string        `json:"date"`
	Time           string        `json:"time"`
	PassengerCount *int          `json:"passenger_count"`
	Mode           string        `json:"mode"`
	Manual         *manualInput  `json:"manual"`
	Address        *addressInput `json:"address"`
	Map            *mapInput     `json:"map"`
	Predict        bool          `json:"predict"`
}

// submission applies the widget defaults: today, now, one passenger, manual
// entry. Address mode without an address object starts from the prefilled
// addresses; a sent object is taken as is, empty fields included.
func (req renderRequest) submission(now time.Time) (form.Submission, error) {
	sub := form.Submission{Date: now, Clock: now, Passengers: models.MinPassengers, Predict: req.Predict}

	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return sub, fmt.Errorf("%w: date %q must be YYYY-MM-DD", errInvalidInput, req.Date)
		}
		sub.Date = d
	}
	if req.Time != "" {
		c, err := parseClock(req.Time)
		if err != nil {
			return sub, fmt.Errorf("%w: time %q must be HH:MM or HH:MM:SS", errInvalidInput, req.Time)
		}
		sub.Clock = c
	}
	if req.PassengerCount != nil {
		n := *req.PassengerCount
		if n < models.MinPassengers || n > models.MaxPassengers {
			return sub, fmt.Errorf("%w: passenger_count must be between %d and %d", errInvalidInput, models.MinPassengers, models.MaxPassengers)
		}
		sub.Passengers = n
	}

	mode, err := models.ParseInputMode(req.Mode)
	if err != nil {
		return sub, fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	switch mode {
	case models.ModeManual:
		in := location.Manual{}
		if m := req.Manual; m != nil {
			in = location.Manual{PickupLat: m.PickupLatitude, PickupLon: m.PickupLongitude, DropoffLat: m.DropoffLatitude, DropoffLon: m.DropoffLongitude}
		}
		sub.Input = in
	case models.ModeAddress:
		in := location.Address{Pickup: DefaultPickupAddress, Dropoff: DefaultDropoffAddress}
		if a := req.Address; a != nil {
			in = location.Address{Pickup: a.Pickup, Dropoff: a.Dropoff}
		}
		sub.Input = in
	case models.ModeMap:
		in := location.MapClick{Role: models.RolePickup}
		if m := req.Map; m != nil {
			role, err := models.ParseRole(m.Role)
			if err != nil {
				return sub, fmt.Errorf("%w: %v", errInvalidInput, err)
			}
			in.Role = role
			if m.Click != nil {
				in.Click = &models.Coord{Lat: m.Click.Lat, Lon: m.Click.Lng}
			}
		}
		sub.Input = in
	}
	return sub, nil
}

func parseClock(s string) (time.Time, error) {
	if t, err := time.Parse("15:04:05", s); err == nil {
		return t, nil
	}
	return time.Parse("15:04", s)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errInvalidInput, err))
		return
	}
	sub, err := req.submission(s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.Form.Render(r.Context(), mux.Vars(r)["session_id"], sub)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// writeJSON encodes v before writing the status, so an unencodable value
// becomes a 500 instead of a truncated 2xx.
func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(b, '\n'))
}

// writeError maps input and session lifecycle errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "route", routeTemplate(r), "request_id", requestIDFromContext(r.Context()), "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}
