package models

import "fmt"

// Coord is a latitude/longitude pair in decimal degrees.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the pair lies inside the WGS84 ranges.
func (c Coord) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func (c Coord) String() string {
	return fmt.Sprintf("(%g, %g)", c.Lat, c.Lon)
}

// InputMode selects how pickup and dropoff are entered for a render pass.
type InputMode string

const (
	ModeManual  InputMode = "manual"
	ModeAddress InputMode = "address"
	ModeMap     InputMode = "map"
)

func ParseInputMode(s string) (InputMode, error) {
	switch InputMode(s) {
	case ModeManual, ModeAddress, ModeMap:
		return InputMode(s), nil
	case "":
		return ModeManual, nil
	}
	return "", fmt.Errorf("unknown input mode %q", s)
}

// Role tells which side of the ride a map click sets.
type Role string

const (
	RolePickup  Role = "pickup"
	RoleDropoff Role = "dropoff"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePickup, RoleDropoff:
		return Role(s), nil
	case "":
		return RolePickup, nil
	}
	return "", fmt.Errorf("unknown location role %q", s)
}

// Label is the human-readable name used in messages and map markers.
func (r Role) Label() string {
	if r == RoleDropoff {
		return "Dropoff"
	}
	return "Pickup"
}

const (
	MinPassengers = 1
	MaxPassengers = 8
)

// RideRequest is the parameter set the prediction service expects.
type RideRequest struct {
	PickupDatetime string `json:"pickup_datetime"`
	Pickup         Coord  `json:"pickup"`
	Dropoff        Coord  `json:"dropoff"`
	PassengerCount int    `json:"passenger_count"`
}

func (r RideRequest) Validate() error {
	if r.PassengerCount < MinPassengers || r.PassengerCount > MaxPassengers {
		return fmt.Errorf("passenger_count must be between %d and %d, got %d", MinPassengers, MaxPassengers, r.PassengerCount)
	}
	if !r.Pickup.Valid() {
		return fmt.Errorf("pickup %v: %w", r.Pickup, ErrInvalidCoordinate)
	}
	if !r.Dropoff.Valid() {
		return fmt.Errorf("dropoff %v: %w", r.Dropoff, ErrInvalidCoordinate)
	}
	return nil
}

// Quote is a successful prediction, published for downstream consumers.
type Quote struct {
	SessionID string      `json:"session_id"`
	Request   RideRequest `json:"request"`
	Fare      float64     `json:"fare"`
	Mode      InputMode   `json:"mode"`
}
