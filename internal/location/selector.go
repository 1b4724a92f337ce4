// Package location reconciles the three ways a user can enter pickup and
// dropoff: manual coordinates, addresses resolved by a geocoder, or clicks on
// the picker map. Exactly one input is active per render pass.
package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/taxifare/internal/logging"
	"github.com/example/taxifare/internal/models"
	"github.com/example/taxifare/internal/observability"
	"github.com/example/taxifare/internal/session"
)

// Input is one of Manual, Address or MapClick.
type Input interface {
	Mode() models.InputMode
}

// Manual carries the four numeric fields. Untouched fields are 0.
type Manual struct {
	PickupLat  float64
	PickupLon  float64
	DropoffLat float64
	DropoffLon float64
}

// Address carries the two free-text addresses.
type Address struct {
	Pickup  string
	Dropoff string
}

// MapClick carries the role the next click sets and, when the user clicked in
// this pass, the clicked point.
type MapClick struct {
	Role  models.Role
	Click *models.Coord
}

func (Manual) Mode() models.InputMode   { return models.ModeManual }
func (Address) Mode() models.InputMode  { return models.ModeAddress }
func (MapClick) Mode() models.InputMode { return models.ModeMap }

// Result is the reconciled pair. Nil sides are unresolved.
type Result struct {
	Pickup  *models.Coord
	Dropoff *models.Coord
	// Notes are informational lines for the user, e.g. the resolved
	// coordinates of each address.
	Notes []string
	// Click is the side a valid map click wrote into the session coordinates.
	Click *Click
}

// Click is one accepted map click.
type Click struct {
	Role models.Role
	At   models.Coord
}

// AddressError reports the address a lookup failed for.
type AddressError struct {
	Role    models.Role
	Address string
	Err     error
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("%s address %q: %v", strings.ToLower(e.Role.Label()), e.Address, e.Err)
}

func (e *AddressError) Unwrap() error { return e.Err }

// Geocoder is the lookup the Address input needs.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (models.Coord, error)
}

type Selector struct {
	geocoder Geocoder
	logger   *slog.Logger
}

func NewSelector(geocoder Geocoder, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Selector{geocoder: geocoder, logger: logger}
}

// Resolve maps the active input to a pickup/dropoff pair. stored is the
// session's map selection; a MapClick with a valid click writes into it. An
// out-of-range click returns ErrInvalidCoordinate alongside the stored pair.
//
// For Address input a failed lookup leaves that side nil and is returned as an
// *AddressError (joined when both fail); the Result is still populated with
// whatever resolved.
func (s *Selector) Resolve(ctx context.Context, in Input, stored *session.Coordinates) (Result, error) {
	switch v := in.(type) {
	case Manual:
		return s.manual(v), nil
	case Address:
		return s.address(ctx, v)
	case MapClick:
		return s.mapClick(v, stored)
	case nil:
		return Result{}, fmt.Errorf("location: no input")
	default:
		return Result{}, fmt.Errorf("location: unsupported input %T", in)
	}
}

func (s *Selector) manual(in Manual) Result {
	return Result{
		Pickup:  &models.Coord{Lat: in.PickupLat, Lon: in.PickupLon},
		Dropoff: &models.Coord{Lat: in.DropoffLat, Lon: in.DropoffLon},
	}
}

func (s *Selector) address(ctx context.Context, in Address) (Result, error) {
	pickup, dropoff := strings.TrimSpace(in.Pickup), strings.TrimSpace(in.Dropoff)
	if pickup == "" || dropoff == "" {
		return Result{}, nil
	}

	var res Result
	var errs []error
	for _, side := range []struct {
		role    models.Role
		address string
		target  **models.Coord
	}{
		{models.RolePickup, pickup, &res.Pickup},
		{models.RoleDropoff, dropoff, &res.Dropoff},
	} {
		c, err := s.geocoder.Resolve(ctx, side.address)
		if err != nil {
			s.logger.Warn("geocode failed", "role", side.role, "address", side.address, "error", err)
			errs = append(errs, &AddressError{Role: side.role, Address: side.address, Err: err})
			continue
		}
		*side.target = &c
	}

	res.Notes = append(res.Notes,
		fmt.Sprintf("Pickup coordinates: %s", describe(res.Pickup)),
		fmt.Sprintf("Dropoff coordinates: %s", describe(res.Dropoff)),
	)
	return res, errors.Join(errs...)
}

func (s *Selector) mapClick(in MapClick, stored *session.Coordinates) (Result, error) {
	if stored == nil {
		return Result{}, fmt.Errorf("location: map input without session coordinates")
	}

	var res Result
	var err error
	if in.Click != nil {
		role := in.Role
		if role == "" {
			role = models.RolePickup
		}
		if in.Click.Valid() {
			stored.Set(role, *in.Click)
			observability.MapClicks.WithLabelValues(string(role)).Inc()
			res.Click = &Click{Role: role, At: *in.Click}
			res.Notes = append(res.Notes, fmt.Sprintf("%s coordinates set to: %s", role.Label(), in.Click))
		} else {
			err = fmt.Errorf("location: click %v: %w", *in.Click, models.ErrInvalidCoordinate)
		}
	}

	// A rejected click leaves the earlier selection in place.
	res.Pickup = copyCoord(stored.Pickup)
	res.Dropoff = copyCoord(stored.Dropoff)
	return res, err
}

func copyCoord(c *models.Coord) *models.Coord {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}

func describe(c *models.Coord) string {
	if c == nil {
		return "unresolved"
	}
	return fmt.Sprintf("%g, %g", c.Lat, c.Lon)
}
