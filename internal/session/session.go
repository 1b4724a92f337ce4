// Package session holds the per-session pickup and dropoff coordinates chosen
// on the map. State is created when a form session opens, survives every
// render pass of that session, and is dropped when the session closes or idles
// past its TTL.
package session

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/example/taxifare/internal/models"
)

var ErrNotFound = errors.New("session not found")

// Coordinates is the last-confirmed map selection of one session. A nil side
// has not been clicked yet.
type Coordinates struct {
	Pickup  *models.Coord `json:"pickup,omitempty"`
	Dropoff *models.Coord `json:"dropoff,omitempty"`
}

func (c *Coordinates) Get(role models.Role) *models.Coord {
	if role == models.RoleDropoff {
		return c.Dropoff
	}
	return c.Pickup
}

// Set overwrites the side for role.
func (c *Coordinates) Set(role models.Role, v models.Coord) {
	if role == models.RoleDropoff {
		c.Dropoff = &v
		return
	}
	c.Pickup = &v
}

func (c Coordinates) clone() Coordinates {
	var out Coordinates
	if c.Pickup != nil {
		p := *c.Pickup
		out.Pickup = &p
	}
	if c.Dropoff != nil {
		d := *c.Dropoff
		out.Dropoff = &d
	}
	return out
}

// Store persists Coordinates per session id.
//
// SetSide writes only the side for role and returns the session's coordinates
// after the write, so clicks on the two sides never overwrite each other.
type Store interface {
	Create(ctx context.Context) (string, error)
	Load(ctx context.Context, id string) (Coordinates, error)
	SetSide(ctx context.Context, id string, role models.Role, c models.Coord) (Coordinates, error)
	Delete(ctx context.Context, id string) error
}

func newID() string { return uuid.NewString() }
