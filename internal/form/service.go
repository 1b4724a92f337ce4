// Package form runs one render pass of the fare form: it reconciles the active
// location input, draws the map views, assembles the ride request and, on
// submit, asks the prediction service for a fare.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/taxifare/internal/events"
	"github.com/example/taxifare/internal/fare"
	"github.com/example/taxifare/internal/geo"
	"github.com/example/taxifare/internal/location"
	"github.com/example/taxifare/internal/logging"
	"github.com/example/taxifare/internal/models"
	"github.com/example/taxifare/internal/session"
)

type Predictor interface {
	Predict(ctx context.Context, r models.RideRequest) (float64, error)
}

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Submission is the widget state of one pass.
type Submission struct {
	Date       time.Time
	Clock      time.Time
	Passengers int
	Input      location.Input
	// Predict is set when the user pressed the predict button.
	Predict bool
}

// View is what the presentation layer renders after a pass.
type View struct {
	SessionID      string              `json:"session_id"`
	PickupDatetime string              `json:"pickup_datetime"`
	PassengerCount int                 `json:"passenger_count"`
	Mode           models.InputMode    `json:"mode"`
	Pickup         *models.Coord       `json:"pickup,omitempty"`
	Dropoff        *models.Coord       `json:"dropoff,omitempty"`
	Messages       []Message           `json:"messages"`
	Picker         *geo.MapView        `json:"picker,omitempty"`
	Route          *geo.MapView        `json:"route,omitempty"`
	Request        *models.RideRequest `json:"request,omitempty"`
	Fare           *float64            `json:"fare,omitempty"`
	FareDisplay    string              `json:"fare_display,omitempty"`
}

func (v *View) add(level Level, text string) {
	v.Messages = append(v.Messages, Message{Level: level, Text: text})
}

type Service struct {
	Store     session.Store
	Selector  *location.Selector
	Predictor Predictor
	Publisher events.Publisher
	Map       geo.Defaults
	Logger    *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return logging.Discard()
	}
	return s.Logger
}

func (s *Service) OpenSession(ctx context.Context) (string, error) {
	id, err := s.Store.Create(ctx)
	if err != nil {
		return "", fmt.Errorf("form: open session: %w", err)
	}
	s.logger().Debug("session opened", "session_id", id)
	return id, nil
}

func (s *Service) CloseSession(ctx context.Context, sessionID string) error {
	if err := s.Store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("form: close session %s: %w", sessionID, err)
	}
	s.logger().Debug("session closed", "session_id", sessionID)
	return nil
}

// Render runs one pass. The only errors returned are session store failures
// (session.ErrNotFound for an unknown or expired id); lookup and prediction
// failures are reported as error messages on the view.
func (s *Service) Render(ctx context.Context, sessionID string, sub Submission) (View, error) {
	stored, err := s.Store.Load(ctx, sessionID)
	if err != nil {
		return View{}, fmt.Errorf("form: load session %s: %w", sessionID, err)
	}

	in := sub.Input
	if in == nil {
		in = location.Manual{}
	}
	v := View{
		SessionID:      sessionID,
		PickupDatetime: fare.PickupDatetime(sub.Date, sub.Clock),
		PassengerCount: sub.Passengers,
		Mode:           in.Mode(),
		Messages:       []Message{},
	}

	res, err := s.Selector.Resolve(ctx, in, &stored)
	for _, n := range res.Notes {
		v.add(LevelInfo, n)
	}
	if err != nil {
		for _, m := range errorMessages(err) {
			v.add(LevelError, m)
		}
	}
	if c := res.Click; c != nil {
		latest, err := s.Store.SetSide(ctx, sessionID, c.Role, c.At)
		if err != nil {
			return View{}, fmt.Errorf("form: save session %s: %w", sessionID, err)
		}
		// latest includes a click on the other side that landed meanwhile.
		stored = latest
		res.Pickup, res.Dropoff = latest.Pickup, latest.Dropoff
	}
	v.Pickup, v.Dropoff = res.Pickup, res.Dropoff

	if v.Mode == models.ModeMap {
		picker := geo.Picker(s.Map, stored.Pickup, stored.Dropoff)
		v.Picker = &picker
	}
	if route, ok := geo.Route(s.Map.Zoom, res.Pickup, res.Dropoff); ok {
		v.Route = &route
	}

	req, ok := fare.Build(res.Pickup, res.Dropoff, v.PickupDatetime, sub.Passengers)
	if !ok {
		return v, nil
	}
	v.Request = &req
	if err := req.Validate(); err != nil {
		s.logger().Warn("ride request outside expected ranges", "session_id", sessionID, "error", err)
	}
	if !sub.Predict {
		return v, nil
	}

	f, err := s.Predictor.Predict(ctx, req)
	if err != nil {
		s.logger().Error("fare prediction failed", "session_id", sessionID, "error", err)
		v.add(LevelError, "Error in API call")
		return v, nil
	}
	v.Fare = &f
	v.FareDisplay = fare.FormatFare(f)
	v.add(LevelSuccess, "The estimated fare is: "+v.FareDisplay)
	s.logger().Info("fare quoted", "session_id", sessionID, "mode", v.Mode, "fare", f)

	if s.Publisher != nil {
		q := models.Quote{SessionID: sessionID, Request: req, Fare: f, Mode: v.Mode}
		if err := s.Publisher.PublishQuote(ctx, q); err != nil {
			s.logger().Warn("quote publish failed", "session_id", sessionID, "error", err)
		}
	}
	return v, nil
}

// Click commits one map click to the session and returns the updated picker.
func (s *Service) Click(ctx context.Context, sessionID string, role models.Role, at models.Coord) (geo.MapView, error) {
	stored, err := s.Store.Load(ctx, sessionID)
	if err != nil {
		return geo.MapView{}, fmt.Errorf("form: load session %s: %w", sessionID, err)
	}
	res, err := s.Selector.Resolve(ctx, location.MapClick{Role: role, Click: &at}, &stored)
	if err != nil {
		return geo.MapView{}, err
	}
	latest, err := s.Store.SetSide(ctx, sessionID, res.Click.Role, res.Click.At)
	if err != nil {
		return geo.MapView{}, fmt.Errorf("form: save session %s: %w", sessionID, err)
	}
	return geo.Picker(s.Map, latest.Pickup, latest.Dropoff), nil
}

// errorMessages turns selector failures into user-facing lines, one per cause.
func errorMessages(err error) []string {
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		var aerr *location.AddressError
		switch {
		case errors.As(e, &aerr):
			out = append(out, "Could not get coordinates for address: "+aerr.Address)
		case errors.Is(e, models.ErrInvalidCoordinate):
			out = append(out, "Clicked point is outside the valid coordinate range")
		default:
			out = append(out, e.Error())
		}
	}
	return out
}
